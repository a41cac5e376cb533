package devauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

func newProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{Secret: "test-secret", Issuer: "wisdom-test", Expiration: time.Hour, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	return p
}

func register(t *testing.T, p *Provider) *models.Identity {
	t.Helper()
	identity, err := p.Register(context.Background(), models.RegisterRequest{
		Email:       "Ann@Wisdom.dev",
		Password:    "secret123",
		DisplayName: "Ann",
	})
	require.NoError(t, err)
	return identity
}

func TestSignInAndVerify(t *testing.T) {
	p := newProvider(t)
	identity := register(t, p)
	assert.Equal(t, "ann@wisdom.dev", identity.Email)

	creds, err := p.SignIn(context.Background(), "ann@wisdom.dev", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, creds.IDToken)

	verified, err := p.Verify(context.Background(), creds.IDToken)
	require.NoError(t, err)
	assert.Equal(t, identity.UID, verified.UID)
	assert.Equal(t, "Ann", verified.DisplayName)
}

func TestSignInRejectsBadPassword(t *testing.T) {
	p := newProvider(t)
	register(t, p)

	_, err := p.SignIn(context.Background(), "ann@wisdom.dev", "wrong")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = p.SignIn(context.Background(), "nobody@wisdom.dev", "secret123")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	p := newProvider(t)
	register(t, p)

	_, err := p.Register(context.Background(), models.RegisterRequest{Email: "ann@wisdom.dev", Password: "secret123", DisplayName: "Ann"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestRevokeInvalidatesIssuedTokens(t *testing.T) {
	p := newProvider(t)
	identity := register(t, p)
	creds, err := p.SignIn(context.Background(), "ann@wisdom.dev", "secret123")
	require.NoError(t, err)

	require.NoError(t, p.Revoke(context.Background(), identity.UID))

	_, err = p.Verify(context.Background(), creds.IDToken)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	fresh, err := p.SignIn(context.Background(), "ann@wisdom.dev", "secret123")
	require.NoError(t, err)
	_, err = p.Verify(context.Background(), fresh.IDToken)
	assert.NoError(t, err)
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	p := newProvider(t)
	register(t, p)
	creds, err := p.SignIn(context.Background(), "ann@wisdom.dev", "secret123")
	require.NoError(t, err)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = p.Verify(context.Background(), creds.IDToken)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	_, err = p.Verify(context.Background(), "not-a-token")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestUpdateProfileIsReflectedOnVerify(t *testing.T) {
	p := newProvider(t)
	identity := register(t, p)
	require.NoError(t, p.UpdateProfile(context.Background(), identity.UID, models.ProfilePatch{DisplayName: "Ann B", PhotoURL: "https://img.dev/a.png"}))

	creds, err := p.SignIn(context.Background(), "ann@wisdom.dev", "secret123")
	require.NoError(t, err)
	verified, err := p.Verify(context.Background(), creds.IDToken)
	require.NoError(t, err)
	assert.Equal(t, "Ann B", verified.DisplayName)
	assert.Equal(t, "https://img.dev/a.png", verified.PhotoURL)
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
