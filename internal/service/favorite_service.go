package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

type favoriteStore interface {
	favoriteLister
	Delete(ctx context.Context, id string) error
}

// FavoriteService backs the member favorites page.
type FavoriteService struct {
	viewSupport
	favorites favoriteStore
	registry  *reconcile.Registry
	runner    *reconcile.Runner
	dashboard dashboardInvalidator
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(favorites favoriteStore, registry *reconcile.Registry, runner *reconcile.Runner, dashboard dashboardInvalidator, metrics *MetricsService, logger *zap.Logger, cfg ViewConfig) *FavoriteService {
	return &FavoriteService{
		viewSupport: newViewSupport(logger, metrics, cfg),
		favorites:   favorites,
		registry:    registry,
		runner:      runner,
		dashboard:   dashboard,
	}
}

// MyFavorites lists the caller's favorites.
func (s *FavoriteService) MyFavorites(ctx context.Context, session *models.Session) (*dto.MyFavoritesView, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	favorites, err := s.favorites.ListByEmail(ctx, session.Email())
	if err != nil {
		s.degraded("my_favorites", err)
		return &dto.MyFavoritesView{Favorites: []models.Favorite{}, Degraded: true}, nil
	}
	if favorites == nil {
		favorites = []models.Favorite{}
	}
	s.list(session).Replace(favorites)
	return &dto.MyFavoritesView{Favorites: favorites, Count: len(favorites)}, nil
}

// Remove drops a favorite optimistically and restores it if the backend refuses.
func (s *FavoriteService) Remove(ctx context.Context, session *models.Session, id string) (dto.ActionResponse[models.Favorite], error) {
	list := s.list(session)
	if _, ok := list.Find(id); !ok {
		view, err := s.MyFavorites(ctx, session)
		if err != nil {
			return dto.ActionResponse[models.Favorite]{}, err
		}
		if view.Degraded {
			return dto.ActionResponse[models.Favorite]{}, appErrors.Clone(appErrors.ErrUpstream, "favorites are unavailable")
		}
		if _, ok := list.Find(id); !ok {
			return dto.ActionResponse[models.Favorite]{}, appErrors.Clone(appErrors.ErrNotFound, "favorite not found")
		}
	}

	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action:  "favorite.remove",
		Policy:  reconcile.PolicyOptimistic,
		Apply:   func() func() { return list.Remove(id) },
		Remote:  func(ctx context.Context) error { return s.favorites.Delete(ctx, id) },
		Success: "Removed from favorites",
		Failure: "Could not remove the favorite",
	})
	if res.Applied && s.dashboard != nil {
		s.dashboard.InvalidateUser(ctx, session.Email())
	}
	return dto.NewActionResponse(res, list.Snapshot()), err
}

func (s *FavoriteService) list(session *models.Session) *reconcile.List[models.Favorite] {
	return reconcile.ListFor(s.registry, "favorites:"+profileKey(session.Email()), favoriteID)
}
