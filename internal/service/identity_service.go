package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

// IdentityProvider owns the session lifecycle and verifies credentials.
type IdentityProvider interface {
	Verify(ctx context.Context, credential string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*models.Credentials, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.Identity, error)
	UpdateProfile(ctx context.Context, uid string, patch models.ProfilePatch) error
	Revoke(ctx context.Context, uid string) error
}

type identityUserRepository interface {
	Create(ctx context.Context, identity models.Identity) error
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error
}

// IdentityService resolves credentials into sessions: verify the identity,
// then enrich it with the backend user record looked up by email.
type IdentityService struct {
	provider  IdentityProvider
	users     identityUserRepository
	profiles  *ProfileStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(provider IdentityProvider, users identityUserRepository, profiles *ProfileStore, validate *validator.Validate, logger *zap.Logger) *IdentityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{provider: provider, users: users, profiles: profiles, validator: validate, logger: logger}
}

// Resolve turns a credential into a Session. Verification failures are
// unauthorized; enrichment failures are ErrIdentityPending so the gate can
// hold the request in its loading state instead of guessing a role.
func (s *IdentityService) Resolve(ctx context.Context, credential string) (*models.Session, error) {
	identity, err := s.provider.Verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	if identity.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "identity has no email")
	}

	profile, err := s.profiles.Get(ctx, identity.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIdentityPending.Code, appErrors.ErrIdentityPending.Status, appErrors.ErrIdentityPending.Message)
	}
	return buildSession(*identity, credential, profile), nil
}

// Login signs in with email and password and resolves the session.
func (s *IdentityService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	creds, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	session, err := s.Resolve(ctx, creds.IDToken)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Credential: creds.IDToken, ExpiresAt: creds.ExpiresAt, Session: session}, nil
}

// RegisterUser creates the identity and its backend record with role user and no premium.
func (s *IdentityService) RegisterUser(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	identity, err := s.provider.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, *identity); err != nil {
		s.logger.Warn("backend user record not created", zap.String("email", identity.Email), zap.Error(err))
	}
	s.profiles.Invalidate(identity.Email)

	creds, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if appErrors.Is(err, appErrors.ErrUnsupported) {
		return &models.LoginResponse{Session: buildSession(*identity, "", nil)}, nil
	}
	if err != nil {
		return nil, err
	}
	session, err := s.Resolve(ctx, creds.IDToken)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Credential: creds.IDToken, ExpiresAt: creds.ExpiresAt, Session: session}, nil
}

// Logout revokes the session at the provider.
func (s *IdentityService) Logout(ctx context.Context, session *models.Session) error {
	if session == nil {
		return nil
	}
	if err := s.provider.Revoke(ctx, session.Identity.UID); err != nil {
		return err
	}
	s.profiles.Invalidate(session.Email())
	return nil
}

// UpdateUser writes the profile to the identity provider and to the backend
// record, then refreshes the shared store.
func (s *IdentityService) UpdateUser(ctx context.Context, session *models.Session, patch models.ProfilePatch) (*models.User, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if err := s.provider.UpdateProfile(ctx, session.Identity.UID, patch); err != nil {
		return nil, err
	}
	if session.UserID != "" {
		if err := s.users.UpdateProfile(ctx, session.UserID, patch); err != nil {
			return nil, err
		}
	}
	user, err := s.profiles.Refresh(ctx, session.Email())
	if err != nil || user == nil {
		if err != nil {
			s.logger.Warn("profile refresh after update failed", zap.String("email", session.Email()), zap.Error(err))
		}
		return &models.User{
			ID:          session.UserID,
			Email:       session.Email(),
			DisplayName: patch.DisplayName,
			PhotoURL:    patch.PhotoURL,
			Role:        session.Role,
			IsPremium:   models.LooseBool(session.IsPremium),
		}, nil
	}
	return user, nil
}

// Profiles exposes the shared profile store.
func (s *IdentityService) Profiles() *ProfileStore {
	return s.profiles
}

func buildSession(identity models.Identity, credential string, profile *models.User) *models.Session {
	session := &models.Session{
		Identity:   identity,
		Role:       models.RoleUser,
		Credential: credential,
	}
	if profile != nil {
		session.UserID = profile.ID
		session.Role = profile.Role.Normalize()
		session.IsPremium = bool(profile.IsPremium)
		session.Profile = profile
		if session.Identity.DisplayName == "" {
			session.Identity.DisplayName = profile.DisplayName
		}
		if session.Identity.PhotoURL == "" {
			session.Identity.PhotoURL = profile.PhotoURL
		}
	}
	return session
}
