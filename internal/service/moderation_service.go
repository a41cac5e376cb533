package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/aggregate"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
)

const moderationListKey = "moderation"

type lessonModerator interface {
	lessonLister
	UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error
	UpdateFeatured(ctx context.Context, id string, featured bool) error
	Delete(ctx context.Context, id string) error
}

// dashboardInvalidator is implemented by DashboardService.
type dashboardInvalidator interface {
	InvalidateAdmin(ctx context.Context)
	InvalidateUser(ctx context.Context, email string)
}

// ModerationService backs the admin lesson queue.
type ModerationService struct {
	viewSupport
	lessons   lessonModerator
	registry  *reconcile.Registry
	runner    *reconcile.Runner
	dashboard dashboardInvalidator
}

// NewModerationService constructs a ModerationService.
func NewModerationService(lessons lessonModerator, registry *reconcile.Registry, runner *reconcile.Runner, dashboard dashboardInvalidator, metrics *MetricsService, logger *zap.Logger, cfg ViewConfig) *ModerationService {
	return &ModerationService{
		viewSupport: newViewSupport(logger, metrics, cfg),
		lessons:     lessons,
		registry:    registry,
		runner:      runner,
		dashboard:   dashboard,
	}
}

// Queue loads every lesson, pending first.
func (s *ModerationService) Queue(ctx context.Context) (*dto.ModerationView, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	list, err := s.lessons.List(ctx, models.LessonFilter{})
	if err != nil {
		s.degraded("moderation", err)
		return &dto.ModerationView{Lessons: []models.Lesson{}, Degraded: true}, nil
	}
	lessons, _ := lessonsOf(list)
	sorted := aggregate.SortForModeration(lessons)
	s.list().Replace(sorted)
	return &dto.ModerationView{Lessons: sorted, Counts: moderationCounts(sorted)}, nil
}

// Approve marks a lesson approved once the backend accepts it.
func (s *ModerationService) Approve(ctx context.Context, id string, confirmed bool) (dto.ActionResponse[models.Lesson], error) {
	list, err := s.seeded(ctx)
	if err != nil {
		return dto.ActionResponse[models.Lesson]{}, err
	}
	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action: "lesson.approve",
		Policy: reconcile.PolicyAfterSuccess,
		Confirm: &reconcile.Confirmation{
			Title:      "Approve this lesson?",
			Message:    "The lesson becomes visible to every reader.",
			ActionText: "Approve",
		},
		Confirmed: confirmed,
		Apply: func() func() {
			return list.Update(id, func(l models.Lesson) models.Lesson {
				l.Status = models.LessonApproved
				return l
			})
		},
		Remote:  func(ctx context.Context) error { return s.lessons.UpdateStatus(ctx, id, models.LessonApproved) },
		Success: "Lesson approved",
		Failure: "Could not approve the lesson",
	})
	s.afterMutation(ctx, res)
	return dto.NewActionResponse(res, aggregate.SortForModeration(list.Snapshot())), err
}

// SetFeatured toggles the featured flag optimistically.
func (s *ModerationService) SetFeatured(ctx context.Context, id string, featured bool) (dto.ActionResponse[models.Lesson], error) {
	list, err := s.seeded(ctx)
	if err != nil {
		return dto.ActionResponse[models.Lesson]{}, err
	}
	success := "Lesson removed from featured"
	if featured {
		success = "Lesson featured"
	}
	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action: "lesson.feature",
		Policy: reconcile.PolicyOptimistic,
		Apply: func() func() {
			return list.Update(id, func(l models.Lesson) models.Lesson {
				l.IsFeatured = models.Flag(featured)
				return l
			})
		},
		Remote:  func(ctx context.Context) error { return s.lessons.UpdateFeatured(ctx, id, featured) },
		Success: success,
		Failure: "Could not update featured status",
	})
	s.afterMutation(ctx, res)
	return dto.NewActionResponse(res, list.Snapshot()), err
}

// RemoveLesson deletes a lesson optimistically after confirmation.
func (s *ModerationService) RemoveLesson(ctx context.Context, id string, confirmed bool) (dto.ActionResponse[models.Lesson], error) {
	list, err := s.seeded(ctx)
	if err != nil {
		return dto.ActionResponse[models.Lesson]{}, err
	}
	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action: "lesson.delete",
		Policy: reconcile.PolicyOptimistic,
		Confirm: &reconcile.Confirmation{
			Title:      "Delete this lesson?",
			Message:    "This cannot be undone.",
			ActionText: "Delete",
			Danger:     true,
		},
		Confirmed: confirmed,
		Apply:     func() func() { return list.Remove(id) },
		Remote:    func(ctx context.Context) error { return s.lessons.Delete(ctx, id) },
		Success:   "Lesson deleted",
		Failure:   "Could not delete the lesson",
	})
	s.afterMutation(ctx, res)
	return dto.NewActionResponse(res, list.Snapshot()), err
}

func (s *ModerationService) list() *reconcile.List[models.Lesson] {
	return reconcile.ListFor(s.registry, moderationListKey, lessonID)
}

func (s *ModerationService) seeded(ctx context.Context) (*reconcile.List[models.Lesson], error) {
	list := s.list()
	if !list.Seeded() {
		if _, err := s.Queue(ctx); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *ModerationService) afterMutation(ctx context.Context, res reconcile.Result) {
	if res.Applied && s.dashboard != nil {
		s.dashboard.InvalidateAdmin(ctx)
	}
}

func moderationCounts(lessons []models.Lesson) dto.ModerationCounts {
	counts := dto.ModerationCounts{Total: len(lessons)}
	for _, l := range lessons {
		if l.Approved() {
			counts.Approved++
		} else {
			counts.Pending++
		}
		if l.IsFeatured {
			counts.Featured++
		}
	}
	return counts
}
