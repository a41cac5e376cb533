package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
)

// CatalogService serves the public featured strip and the weekly leaderboard.
type CatalogService struct {
	viewSupport
	lessons      lessonLister
	contributors contributorBoard
	profiles     *ProfileStore
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(lessons lessonLister, contributors contributorBoard, profiles *ProfileStore, metrics *MetricsService, logger *zap.Logger, cfg ViewConfig) *CatalogService {
	return &CatalogService{
		viewSupport:  newViewSupport(logger, metrics, cfg),
		lessons:      lessons,
		contributors: contributors,
		profiles:     profiles,
	}
}

// Featured lists featured lessons, locking premium ones for viewers without premium.
// session may be nil for anonymous visitors.
func (s *CatalogService) Featured(ctx context.Context, session *models.Session) (*dto.FeaturedView, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var (
		list    *models.LessonList
		premium bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		list, err = s.lessons.List(gctx, models.LessonFilter{IsFeatured: boolPtr(true)})
		return err
	})
	g.Go(func() error {
		premium = s.viewerPremium(gctx, session)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.degraded("featured", err)
		return &dto.FeaturedView{Lessons: []dto.FeaturedLesson{}, Degraded: true}, nil
	}

	lessons, _ := lessonsOf(list)
	out := make([]dto.FeaturedLesson, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, dto.FeaturedLesson{Lesson: l, Locked: bool(l.IsPremiumAccess) && !premium})
	}
	return &dto.FeaturedView{Lessons: out, ViewerPremium: premium}, nil
}

// TopContributors returns the weekly leaderboard.
func (s *CatalogService) TopContributors(ctx context.Context) (*dto.ContributorsView, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	contributors, err := s.contributors.TopOfWeek(ctx)
	if err != nil {
		s.degraded("top_contributors", err)
		return &dto.ContributorsView{Contributors: []models.Contributor{}, Degraded: true}, nil
	}
	if contributors == nil {
		contributors = []models.Contributor{}
	}
	return &dto.ContributorsView{Contributors: contributors}, nil
}

func (s *CatalogService) viewerPremium(ctx context.Context, session *models.Session) bool {
	if session == nil {
		return false
	}
	if s.profiles == nil {
		return session.IsPremium
	}
	user, err := s.profiles.Get(ctx, session.Email())
	if err != nil {
		return session.IsPremium
	}
	return user != nil && bool(user.IsPremium)
}
