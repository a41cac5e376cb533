package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/aggregate"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
)

type profileUpdater interface {
	UpdateUser(ctx context.Context, session *models.Session, patch models.ProfilePatch) (*models.User, error)
}

// ProfileService backs the member profile page.
type ProfileService struct {
	viewSupport
	profiles  *ProfileStore
	lessons   lessonLister
	favorites favoriteLister
	identity  profileUpdater
	runner    *reconcile.Runner
	dashboard dashboardInvalidator
}

// ProfileServiceParams groups constructor dependencies.
type ProfileServiceParams struct {
	Profiles  *ProfileStore
	Lessons   lessonLister
	Favorites favoriteLister
	Identity  profileUpdater
	Runner    *reconcile.Runner
	Dashboard dashboardInvalidator
	Metrics   *MetricsService
	Logger    *zap.Logger
	Config    ViewConfig
}

// NewProfileService constructs a ProfileService.
func NewProfileService(params ProfileServiceParams) *ProfileService {
	return &ProfileService{
		viewSupport: newViewSupport(params.Logger, params.Metrics, params.Config),
		profiles:    params.Profiles,
		lessons:     params.Lessons,
		favorites:   params.Favorites,
		identity:    params.Identity,
		runner:      params.Runner,
		dashboard:   params.Dashboard,
	}
}

// Profile shows the caller's record, public lessons and favorites count.
func (s *ProfileService) Profile(ctx context.Context, session *models.Session) (*dto.ProfileView, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var (
		user      *models.User
		lessons   *models.LessonList
		favorites []models.Favorite
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.profiles.Get(gctx, session.Email())
		return err
	})
	g.Go(func() error {
		var err error
		lessons, err = s.lessons.List(gctx, models.LessonFilter{Email: session.Email(), IsPrivate: boolPtr(false)})
		return err
	})
	g.Go(func() error {
		var err error
		favorites, err = s.favorites.ListByEmail(gctx, session.Email())
		return err
	})

	if err := g.Wait(); err != nil {
		s.degraded("profile", err)
		return &dto.ProfileView{User: fallbackUser(session), Lessons: []models.Lesson{}, Degraded: true}, nil
	}

	if user == nil {
		user = fallbackUser(session)
	}
	items, _ := lessonsOf(lessons)
	items = aggregate.SortRecent(items)
	return &dto.ProfileView{
		User:           user,
		Lessons:        items,
		LessonsCount:   len(items),
		FavoritesCount: len(favorites),
	}, nil
}

// Update changes the display name and photo once both the identity provider
// and the backend accepted them.
func (s *ProfileService) Update(ctx context.Context, session *models.Session, patch models.ProfilePatch) (*dto.ProfileUpdateResponse, error) {
	var updated *models.User
	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action: "profile.update",
		Policy: reconcile.PolicyAfterSuccess,
		Remote: func(ctx context.Context) error {
			user, err := s.identity.UpdateUser(ctx, session, patch)
			if err != nil {
				return err
			}
			updated = user
			return nil
		},
		Success: "Profile updated",
		Failure: "Could not update your profile",
	})
	if err != nil {
		return &dto.ProfileUpdateResponse{Notice: res.Notice, User: fallbackUser(session)}, err
	}
	if s.dashboard != nil {
		s.dashboard.InvalidateUser(ctx, session.Email())
	}
	return &dto.ProfileUpdateResponse{Notice: res.Notice, User: updated}, nil
}

func fallbackUser(session *models.Session) *models.User {
	if session.Profile != nil {
		return cloneUser(session.Profile)
	}
	return &models.User{
		ID:          session.UserID,
		Email:       session.Email(),
		DisplayName: session.Identity.DisplayName,
		PhotoURL:    session.Identity.PhotoURL,
		Role:        session.Role,
		IsPremium:   models.LooseBool(session.IsPremium),
	}
}
