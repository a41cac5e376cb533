// Package devauth is an in-memory identity provider for local development and tests.
// Tokens are HS256 JWTs; passwords are stored as bcrypt hashes.
package devauth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

// Config configures token issuance.
type Config struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type account struct {
	identity     models.Identity
	passwordHash []byte
	generation   int
}

// Provider implements the identity provider contract without external services.
type Provider struct {
	cfg Config
	now func() time.Time

	mu      sync.RWMutex
	byEmail map[string]*account
	byUID   map[string]*account
}

// New constructs a Provider.
func New(cfg Config) (*Provider, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("devauth: secret is required")
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Provider{
		cfg:     cfg,
		now:     time.Now,
		byEmail: make(map[string]*account),
		byUID:   make(map[string]*account),
	}, nil
}

// Register creates an account.
func (p *Provider) Register(_ context.Context, req models.RegisterRequest) (*models.Identity, error) {
	email := normalizeEmail(req.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), p.cfg.BcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byEmail[email]; exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	acc := &account{
		identity: models.Identity{
			UID:         uuid.NewString(),
			Email:       email,
			DisplayName: req.DisplayName,
			PhotoURL:    req.PhotoURL,
		},
		passwordHash: hash,
	}
	p.byEmail[email] = acc
	p.byUID[acc.identity.UID] = acc

	identity := acc.identity
	return &identity, nil
}

// SignIn checks the password and mints a token.
func (p *Provider) SignIn(_ context.Context, email, password string) (*models.Credentials, error) {
	p.mu.RLock()
	acc, ok := p.byEmail[normalizeEmail(email)]
	var (
		identity   models.Identity
		hash       []byte
		generation int
	)
	if ok {
		identity, hash, generation = acc.identity, acc.passwordHash, acc.generation
	}
	p.mu.RUnlock()

	if !ok {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	return p.issue(identity, generation)
}

// Verify validates a token and returns the current identity of its subject.
func (p *Provider) Verify(_ context.Context, credential string) (*models.Identity, error) {
	claims := &models.DevClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.cfg.Secret), nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !token.Valid {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	acc, ok := p.byUID[claims.Subject]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown account")
	}
	if claims.Generation != acc.generation {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session revoked")
	}
	identity := acc.identity
	return &identity, nil
}

// UpdateProfile changes display name and photo.
func (p *Provider) UpdateProfile(_ context.Context, uid string, patch models.ProfilePatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.byUID[uid]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	acc.identity.DisplayName = patch.DisplayName
	if patch.PhotoURL != "" {
		acc.identity.PhotoURL = patch.PhotoURL
	}
	return nil
}

// Revoke invalidates every token issued so far for uid.
func (p *Provider) Revoke(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.byUID[uid]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	acc.generation++
	return nil
}

func (p *Provider) issue(identity models.Identity, generation int) (*models.Credentials, error) {
	issuedAt := p.now().UTC()
	expiresAt := issuedAt.Add(p.cfg.Expiration)
	claims := &models.DevClaims{
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
		Generation:  generation,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    p.cfg.Issuer,
			Subject:   identity.UID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return &models.Credentials{IDToken: signed, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
