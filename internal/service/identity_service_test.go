package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/devauth"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
	"github.com/noah-isme/wisdom-gateway/pkg/events"
)

func newIdentityFixture(t *testing.T) (*IdentityService, *fakeUsers, *devauth.Provider) {
	t.Helper()
	provider, err := devauth.New(devauth.Config{Secret: "test-secret", Issuer: "test", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	users := &fakeUsers{log: &callLog{}}
	store := NewProfileStore(users, time.Minute, zap.NewNop())
	return NewIdentityService(provider, users, store, nil, zap.NewNop()), users, provider
}

func TestIdentityServiceRegisterCreatesDefaultUser(t *testing.T) {
	svc, users, _ := newIdentityFixture(t)

	out, err := svc.RegisterUser(context.Background(), models.RegisterRequest{
		Email: "New@x.io", Password: "secret1", DisplayName: "Newcomer",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Session)
	assert.NotEmpty(t, out.Credential)
	assert.Equal(t, "new@x.io", out.Session.Email())
	assert.Equal(t, models.RoleUser, out.Session.Role)
	assert.False(t, out.Session.IsPremium)
	assert.Equal(t, 1, users.log.count("POST /users"))
}

func TestIdentityServiceResolveDefaultsWhenNoRecord(t *testing.T) {
	svc, _, provider := newIdentityFixture(t)
	ctx := context.Background()
	_, err := provider.Register(ctx, models.RegisterRequest{Email: "ghost@x.io", Password: "secret1", DisplayName: "Ghost"})
	require.NoError(t, err)
	creds, err := provider.SignIn(ctx, "ghost@x.io", "secret1")
	require.NoError(t, err)

	session, err := svc.Resolve(ctx, creds.IDToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, session.Role)
	assert.False(t, session.IsPremium)
	assert.Empty(t, session.UserID)
}

func TestIdentityServiceResolveEnrichesFromRecord(t *testing.T) {
	svc, users, provider := newIdentityFixture(t)
	ctx := context.Background()
	users.users = []models.User{{ID: "u9", Email: "boss@x.io", Role: "ADMIN", IsPremium: true}}
	_, err := provider.Register(ctx, models.RegisterRequest{Email: "boss@x.io", Password: "secret1", DisplayName: "Boss"})
	require.NoError(t, err)
	creds, err := provider.SignIn(ctx, "boss@x.io", "secret1")
	require.NoError(t, err)

	session, err := svc.Resolve(ctx, creds.IDToken)
	require.NoError(t, err)
	assert.True(t, session.IsAdmin())
	assert.True(t, session.IsPremium)
	assert.Equal(t, "u9", session.UserID)
}

func TestIdentityServiceResolvePendingWhenLookupFails(t *testing.T) {
	svc, users, provider := newIdentityFixture(t)
	ctx := context.Background()
	_, err := provider.Register(ctx, models.RegisterRequest{Email: "a@x.io", Password: "secret1", DisplayName: "A"})
	require.NoError(t, err)
	creds, err := provider.SignIn(ctx, "a@x.io", "secret1")
	require.NoError(t, err)
	users.findErr = assert.AnError

	_, err = svc.Resolve(ctx, creds.IDToken)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrIdentityPending))
}

func TestIdentityServiceResolveRejectsBadCredential(t *testing.T) {
	svc, _, _ := newIdentityFixture(t)

	_, err := svc.Resolve(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestIdentityServiceLogoutRevokesCredential(t *testing.T) {
	svc, _, _ := newIdentityFixture(t)
	ctx := context.Background()
	out, err := svc.RegisterUser(ctx, models.RegisterRequest{Email: "a@x.io", Password: "secret1", DisplayName: "A"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, out.Session))
	_, err = svc.Resolve(ctx, out.Credential)
	assert.Error(t, err)
}

func TestProfileStoreCachesAndRefreshes(t *testing.T) {
	users := &fakeUsers{users: []models.User{{ID: "u1", Email: "a@x.io"}}}
	store := NewProfileStore(users, time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := store.Get(ctx, "A@x.io")
	require.NoError(t, err)
	require.NotNil(t, first)
	_, err = store.Get(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, 1, users.finds)

	var (
		mu      sync.Mutex
		changes []ProfileChange
	)
	stop := store.Subscribe(func(c ProfileChange) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})
	users.users[0].IsPremium = true
	require.NoError(t, store.HandlePremiumUpdated(ctx, events.Event{Topic: events.TopicPremiumUpdated, Subject: "a@x.io"}))

	refreshed, err := store.Get(ctx, "a@x.io")
	require.NoError(t, err)
	assert.True(t, bool(refreshed.IsPremium))
	require.Len(t, changes, 1)
	assert.Equal(t, "a@x.io", changes[0].Email)

	stop()
	stop()
	_, err = store.Refresh(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestProfileStoreReturnsCopies(t *testing.T) {
	users := &fakeUsers{users: []models.User{{ID: "u1", Email: "a@x.io", DisplayName: "A"}}}
	store := NewProfileStore(users, time.Minute, zap.NewNop())

	got, err := store.Get(context.Background(), "a@x.io")
	require.NoError(t, err)
	got.DisplayName = "mutated"

	again, err := store.Get(context.Background(), "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "A", again.DisplayName)
}
