package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

func newFavoriteFixture() (*FavoriteService, *fakeFavorites, *recordingDashboard) {
	favorites := &fakeFavorites{log: &callLog{}, favorites: []models.Favorite{
		{ID: "f1", PostID: "l1", ViewerEmail: "me@x.io"},
		{ID: "f2", PostID: "l2", ViewerEmail: "me@x.io"},
		{ID: "f3", PostID: "l3", ViewerEmail: "other@x.io"},
	}}
	dash := &recordingDashboard{}
	svc := NewFavoriteService(favorites, reconcile.NewRegistry(16), reconcile.NewRunner(zap.NewNop(), nil), dash, nil, zap.NewNop(), ViewConfig{})
	return svc, favorites, dash
}

func TestFavoriteServiceRemoveIsOptimistic(t *testing.T) {
	svc, favorites, dash := newFavoriteFixture()
	session := memberSession("me@x.io")

	var presentDuringDelete bool
	favorites.onDelete = func(id string) {
		_, presentDuringDelete = svc.list(session).Find(id)
	}

	out, err := svc.Remove(context.Background(), session, "f1")
	require.NoError(t, err)
	assert.False(t, presentDuringDelete, "item must leave the list before the DELETE is sent")
	assert.True(t, out.Applied)
	assert.Equal(t, reconcile.LevelSuccess, out.Notice.Level)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "f2", out.Items[0].ID)
	assert.Equal(t, []string{"me@x.io"}, dash.users)
}

func TestFavoriteServiceRemoveRestoresOnFailure(t *testing.T) {
	svc, favorites, dash := newFavoriteFixture()
	session := memberSession("me@x.io")
	favorites.deleteErr = assert.AnError

	var presentDuringDelete bool
	favorites.onDelete = func(id string) {
		_, presentDuringDelete = svc.list(session).Find(id)
	}

	out, err := svc.Remove(context.Background(), session, "f1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstream))
	assert.False(t, presentDuringDelete)
	assert.True(t, out.RolledBack)
	assert.Equal(t, reconcile.LevelError, out.Notice.Level)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "f1", out.Items[0].ID, "restored item keeps its position")
	assert.Empty(t, dash.users)
}

func TestFavoriteServiceRemoveRejectsForeignFavorite(t *testing.T) {
	svc, favorites, _ := newFavoriteFixture()

	_, err := svc.Remove(context.Background(), memberSession("me@x.io"), "f3")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Zero(t, favorites.log.count("DELETE"))
}

func TestFavoriteServiceMyFavoritesDegraded(t *testing.T) {
	svc, favorites, _ := newFavoriteFixture()
	favorites.listErr = assert.AnError

	view, err := svc.MyFavorites(context.Background(), memberSession("me@x.io"))
	require.NoError(t, err)
	assert.True(t, view.Degraded)
	assert.Empty(t, view.Favorites)
	assert.NotNil(t, view.Favorites)
}
