package repository

import (
	"context"
	"net/url"
	"time"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
)

// UserRepository reads and mutates the backend users collection.
type UserRepository struct {
	remote
}

// NewUserRepository constructs a user repository.
func NewUserRepository(client *apiclient.Client) *UserRepository {
	return &UserRepository{remote{client: client}}
}

// FindByEmail returns the first user whose email matches, or nil when none does.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var users []models.User
	if err := r.public().Get(ctx, "/users", url.Values{"email": {email}}, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	user := users[0]
	return &user, nil
}

// List returns every user.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.public().Get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Create posts a freshly registered user.
func (r *UserRepository) Create(ctx context.Context, identity models.Identity) error {
	doc := models.NewUser{
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
		Role:        models.RoleUser,
		IsPremium:   false,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	return r.public().Post(ctx, "/users", doc, nil)
}

// UpdateProfile patches display name and photo.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Patch(ctx, "/users/"+escape(id), patch, nil)
}

// SetPremium flips the premium entitlement on.
func (r *UserRepository) SetPremium(ctx context.Context, id string) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Patch(ctx, "/users/"+escape(id), models.PremiumPatch{IsPremium: true}, nil)
}

// UpdateRole sets the role through the role sub-resource.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Patch(ctx, "/users/"+escape(id)+"/role", models.RolePatch{Role: role}, nil)
}

// Delete removes a user. The backend exposes deletion on the role sub-resource.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Delete(ctx, "/users/"+escape(id)+"/role", nil)
}
