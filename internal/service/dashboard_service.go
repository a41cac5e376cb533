package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/aggregate"
)

const (
	adminHomeSnapshot      = "view:admin-home"
	userHomeSnapshotPrefix = "view:user-home:"
	topContributorLimit    = 3
	recentLessonLimit      = 3
)

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	SnapshotTTL time.Duration
	View        ViewConfig
}

// DashboardService composes the admin and member home pages.
type DashboardService struct {
	viewSupport
	users        userLister
	lessons      lessonLister
	reports      reportLister
	contributors contributorBoard
	favorites    favoriteLister
	likes        likeLister
	snapshots    *ViewSnapshots
	cfg          DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users        userLister
	Lessons      lessonLister
	Reports      reportLister
	Contributors contributorBoard
	Favorites    favoriteLister
	Likes        likeLister
	Snapshots    *ViewSnapshots
	Metrics      *MetricsService
	Logger       *zap.Logger
	Config       DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 5 * time.Minute
	}
	return &DashboardService{
		viewSupport:  newViewSupport(params.Logger, params.Metrics, cfg.View),
		users:        params.Users,
		lessons:      params.Lessons,
		reports:      params.Reports,
		contributors: params.Contributors,
		favorites:    params.Favorites,
		likes:        params.Likes,
		snapshots:    params.Snapshots,
		cfg:          cfg,
	}
}

// AdminHome returns the admin dashboard and whether it came from a snapshot.
func (s *DashboardService) AdminHome(ctx context.Context) (*dto.AdminHomeView, bool, error) {
	if stored, ok := s.adminSnapshot(ctx); ok {
		return stored, true, nil
	}
	view, err := s.composeAdmin(ctx)
	if err != nil {
		s.degraded("admin_home", err)
		return emptyAdminHome(), false, nil
	}
	s.saveSnapshot(ctx, adminHomeSnapshot, view)
	return view, false, nil
}

// UserHome returns the member dashboard for email and whether it came from a snapshot.
func (s *DashboardService) UserHome(ctx context.Context, email string) (*dto.UserHomeView, bool, error) {
	key := userHomeSnapshot(email)
	if stored, ok := s.userSnapshot(ctx, key); ok {
		return stored, true, nil
	}
	view, err := s.composeUser(ctx, email)
	if err != nil {
		s.degraded("user_home", err)
		return emptyUserHome(), false, nil
	}
	s.saveSnapshot(ctx, key, view)
	return view, false, nil
}

// InvalidateAdmin drops the admin dashboard snapshot.
func (s *DashboardService) InvalidateAdmin(ctx context.Context) {
	if s.snapshots != nil {
		_ = s.snapshots.Drop(ctx, adminHomeSnapshot)
	}
}

// InvalidateUser drops the member dashboard snapshot of email.
func (s *DashboardService) InvalidateUser(ctx context.Context, email string) {
	if s.snapshots != nil {
		_ = s.snapshots.Drop(ctx, userHomeSnapshot(email))
	}
}

// WatchProfiles drops dashboard snapshots whenever the profile store changes.
func (s *DashboardService) WatchProfiles(store *ProfileStore) func() {
	return store.Subscribe(func(change ProfileChange) {
		ctx := context.Background()
		s.InvalidateAdmin(ctx)
		if change.Email == "" {
			if s.snapshots != nil {
				_ = s.snapshots.Drop(ctx, userHomeSnapshotPrefix+"*")
			}
			return
		}
		s.InvalidateUser(ctx, change.Email)
	})
}

func (s *DashboardService) composeAdmin(ctx context.Context) (*dto.AdminHomeView, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var (
		users        []models.User
		public       *models.LessonList
		reports      []models.Report
		contributors []models.Contributor
		recent       *models.LessonList
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.users.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		public, err = s.lessons.List(gctx, models.LessonFilter{IsPrivate: boolPtr(false)})
		return err
	})
	g.Go(func() (err error) {
		reports, err = s.reports.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		contributors, err = s.contributors.TopOfWeek(gctx)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.lessons.List(gctx, models.LessonFilter{Sort: "postedAt"})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	publicLessons, publicTotal := lessonsOf(public)
	recentLessons, _ := lessonsOf(recent)
	return &dto.AdminHomeView{
		Stats: dto.AdminStats{
			TotalUsers:         len(users),
			TotalPublicLessons: publicTotal,
			TotalReports:       len(reports),
			LessonsToday:       aggregate.CountSameDay(recentLessons, s.now()),
		},
		UserGrowth:      aggregate.BucketByDay(aggregate.CreatedTimes(users), aggregate.GrowthWindow),
		LessonGrowth:    aggregate.BucketByDay(aggregate.PostedTimes(aggregate.DedupLessons(publicLessons, recentLessons)), aggregate.GrowthWindow),
		TopContributors: aggregate.TopN(contributors, topContributorLimit),
	}, nil
}

func (s *DashboardService) composeUser(ctx context.Context, email string) (*dto.UserHomeView, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var (
		lessons   *models.LessonList
		favorites []models.Favorite
		likes     []models.Like
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		lessons, err = s.lessons.List(gctx, models.LessonFilter{Email: email})
		return err
	})
	g.Go(func() (err error) {
		favorites, err = s.favorites.ListByEmail(gctx, email)
		return err
	})
	g.Go(func() (err error) {
		likes, err = s.likes.ListByEmail(gctx, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	own, total := lessonsOf(lessons)
	return &dto.UserHomeView{
		Stats: dto.UserStats{
			TotalLessons:   total,
			TotalFavorites: len(favorites),
			TotalLikes:     len(likes),
		},
		RecentLessons:  aggregate.TopN(aggregate.SortRecent(own), recentLessonLimit),
		WeeklyActivity: aggregate.BucketByDay(aggregate.PostedTimes(own), aggregate.GrowthWindow),
	}, nil
}

func (s *DashboardService) adminSnapshot(ctx context.Context) (*dto.AdminHomeView, bool) {
	if s.snapshots == nil {
		return nil, false
	}
	var stored dto.AdminHomeView
	hit, err := s.snapshots.Load(ctx, adminHomeSnapshot, &stored)
	if err != nil || !hit {
		return nil, false
	}
	return &stored, true
}

func (s *DashboardService) userSnapshot(ctx context.Context, key string) (*dto.UserHomeView, bool) {
	if s.snapshots == nil {
		return nil, false
	}
	var stored dto.UserHomeView
	hit, err := s.snapshots.Load(ctx, key, &stored)
	if err != nil || !hit {
		return nil, false
	}
	return &stored, true
}

func (s *DashboardService) saveSnapshot(ctx context.Context, key string, value interface{}) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, key, value, s.cfg.SnapshotTTL); err != nil {
		s.logger.Warn("dashboard snapshot write failed", zap.String("key", key), zap.Error(err))
	}
}

func userHomeSnapshot(email string) string {
	return fmt.Sprintf("%s%s", userHomeSnapshotPrefix, profileKey(email))
}

func emptyAdminHome() *dto.AdminHomeView {
	return &dto.AdminHomeView{
		UserGrowth:      []aggregate.DayBucket{},
		LessonGrowth:    []aggregate.DayBucket{},
		TopContributors: []models.Contributor{},
		Degraded:        true,
	}
}

func emptyUserHome() *dto.UserHomeView {
	return &dto.UserHomeView{
		RecentLessons:  []models.Lesson{},
		WeeklyActivity: []aggregate.DayBucket{},
		Degraded:       true,
	}
}
