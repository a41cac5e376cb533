package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
)

// FavoriteRepository reads and mutates the backend favorites collection.
type FavoriteRepository struct {
	remote
}

// NewFavoriteRepository constructs a favorite repository.
func NewFavoriteRepository(client *apiclient.Client) *FavoriteRepository {
	return &FavoriteRepository{remote{client: client}}
}

// ListByEmail returns the viewer's favorites.
func (r *FavoriteRepository) ListByEmail(ctx context.Context, email string) ([]models.Favorite, error) {
	var favorites []models.Favorite
	if err := r.public().Get(ctx, "/favorites", url.Values{"email": {email}}, &favorites); err != nil {
		return nil, err
	}
	if favorites == nil {
		favorites = []models.Favorite{}
	}
	return favorites, nil
}

// Delete removes one favorite.
func (r *FavoriteRepository) Delete(ctx context.Context, id string) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Delete(ctx, "/favorites/"+escape(id), nil)
}

// SyncLesson pushes a lesson edit onto the denormalized favorites copy keyed by lesson id.
func (r *FavoriteRepository) SyncLesson(ctx context.Context, lessonID string, edit models.LessonEdit) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Patch(ctx, "/favorites/"+escape(lessonID), edit, nil)
}
