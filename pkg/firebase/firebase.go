// Package firebase adapts the Firebase Admin SDK to the gateway's identity provider contract.
package firebase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/config"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

// InitApp initialises the Firebase app from a credentials file or a base64 service account.
func InitApp(ctx context.Context, cfg config.IdentityConfig) (*firebase.App, error) {
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID must be set")
	}

	var opt option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	case cfg.ServiceAccountJSONBase64 != "":
		jsonKey, err := base64.StdEncoding.DecodeString(cfg.ServiceAccountJSONBase64)
		if err != nil {
			return nil, errors.New("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not a valid base64 string")
		}
		opt = option.WithCredentialsJSON(jsonKey)
	default:
		return nil, errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 must be set")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	return app, nil
}

// Provider verifies Firebase ID tokens and manages Firebase accounts.
type Provider struct {
	auth *auth.Client
}

// New builds a Provider from configuration.
func New(ctx context.Context, cfg config.IdentityConfig) (*Provider, error) {
	app, err := InitApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &Provider{auth: client}, nil
}

// Verify checks an ID token and returns the identity it asserts.
func (p *Provider) Verify(ctx context.Context, credential string) (*models.Identity, error) {
	token, err := p.auth.VerifyIDToken(ctx, credential)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid id token")
	}
	return &models.Identity{
		UID:         token.UID,
		Email:       claim(token.Claims, "email"),
		DisplayName: claim(token.Claims, "name"),
		PhotoURL:    claim(token.Claims, "picture"),
	}, nil
}

// SignIn is performed by the browser against Firebase directly.
func (p *Provider) SignIn(context.Context, string, string) (*models.Credentials, error) {
	return nil, appErrors.Clone(appErrors.ErrUnsupported, "password sign-in happens in the browser with firebase")
}

// Register creates a Firebase account.
func (p *Provider) Register(ctx context.Context, req models.RegisterRequest) (*models.Identity, error) {
	params := (&auth.UserToCreate{}).
		Email(req.Email).
		Password(req.Password).
		DisplayName(req.DisplayName)
	if req.PhotoURL != "" {
		params = params.PhotoURL(req.PhotoURL)
	}
	record, err := p.auth.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create account")
	}
	return fromRecord(record), nil
}

// UpdateProfile writes display name and photo to the Firebase account.
func (p *Provider) UpdateProfile(ctx context.Context, uid string, patch models.ProfilePatch) error {
	params := (&auth.UserToUpdate{}).DisplayName(patch.DisplayName)
	if patch.PhotoURL != "" {
		params = params.PhotoURL(patch.PhotoURL)
	}
	if _, err := p.auth.UpdateUser(ctx, uid, params); err != nil {
		if auth.IsUserNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to update account")
	}
	return nil
}

// Revoke invalidates every refresh token of uid.
func (p *Provider) Revoke(ctx context.Context, uid string) error {
	if err := p.auth.RevokeRefreshTokens(ctx, uid); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to revoke session")
	}
	return nil
}

func fromRecord(record *auth.UserRecord) *models.Identity {
	if record == nil || record.UserInfo == nil {
		return &models.Identity{}
	}
	return &models.Identity{
		UID:         record.UID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		PhotoURL:    record.PhotoURL,
	}
}

func claim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
