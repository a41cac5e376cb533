package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

type lessonEditor interface {
	lessonLister
	Edit(ctx context.Context, id string, edit models.LessonEdit) error
	Delete(ctx context.Context, id string) error
}

type favoriteSyncer interface {
	SyncLesson(ctx context.Context, lessonID string, edit models.LessonEdit) error
}

// LessonService backs the member "my lessons" page.
type LessonService struct {
	viewSupport
	lessons   lessonEditor
	favorites favoriteSyncer
	profiles  *ProfileStore
	registry  *reconcile.Registry
	runner    *reconcile.Runner
	dashboard dashboardInvalidator
	validator *validator.Validate
}

// LessonServiceParams groups constructor dependencies.
type LessonServiceParams struct {
	Lessons   lessonEditor
	Favorites favoriteSyncer
	Profiles  *ProfileStore
	Registry  *reconcile.Registry
	Runner    *reconcile.Runner
	Dashboard dashboardInvalidator
	Validator *validator.Validate
	Metrics   *MetricsService
	Logger    *zap.Logger
	Config    ViewConfig
}

// NewLessonService constructs a LessonService.
func NewLessonService(params LessonServiceParams) *LessonService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &LessonService{
		viewSupport: newViewSupport(params.Logger, params.Metrics, params.Config),
		lessons:     params.Lessons,
		favorites:   params.Favorites,
		profiles:    params.Profiles,
		registry:    params.Registry,
		runner:      params.Runner,
		dashboard:   params.Dashboard,
		validator:   validate,
	}
}

// MyLessons lists the caller's lessons.
func (s *LessonService) MyLessons(ctx context.Context, session *models.Session) (*dto.MyLessonsView, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	view := &dto.MyLessonsView{
		Lessons:             []models.Lesson{},
		CanUsePremiumAccess: s.premium(ctx, session),
		Categories:          models.LessonCategories,
		Tones:               models.LessonTones,
	}
	list, err := s.lessons.List(ctx, models.LessonFilter{Email: session.Email()})
	if err != nil {
		s.degraded("my_lessons", err)
		view.Degraded = true
		return view, nil
	}
	view.Lessons, view.Total = lessonsOf(list)
	s.list(session).Replace(view.Lessons)
	return view, nil
}

// Edit updates one of the caller's lessons, then its denormalized copy in
// favorites. A failed second write leaves the copies diverged and is reported
// as a partial result; nothing is rolled back.
func (s *LessonService) Edit(ctx context.Context, session *models.Session, id string, edit models.LessonEdit) (dto.ActionResponse[models.Lesson], error) {
	var empty dto.ActionResponse[models.Lesson]
	if err := s.validator.Struct(edit); err != nil {
		return empty, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if !contains(models.LessonCategories, edit.Category) {
		return empty, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	if !contains(models.LessonTones, edit.Tone) {
		return empty, appErrors.Clone(appErrors.ErrValidation, "unknown tone")
	}
	if bool(edit.IsPremiumAccess) && !s.premium(ctx, session) {
		return empty, appErrors.Clone(appErrors.ErrPremiumRequired, "upgrade to premium to publish premium-only lessons")
	}

	list, err := s.owned(ctx, session, id)
	if err != nil {
		return empty, err
	}

	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action:  "lesson.edit",
		Policy:  reconcile.PolicyAfterSuccess,
		Apply:   func() func() { return list.Update(id, edit.Apply) },
		Remote:  func(ctx context.Context) error { return s.lessons.Edit(ctx, id, edit) },
		Success: "Lesson updated",
		Failure: "Could not update the lesson",
	})
	if err != nil {
		return dto.NewActionResponse(res, list.Snapshot()), err
	}

	partial := false
	if syncErr := s.favorites.SyncLesson(ctx, id, edit); syncErr != nil {
		s.logger.Error("favorites copy diverged from lesson",
			zap.String("lesson_id", id),
			zap.String("email", session.Email()),
			zap.Error(syncErr),
		)
		s.metrics.RecordMutation("lesson.edit", "partial")
		res = reconcile.Warn(res, "Lesson updated, but saved favorites may still show the old version")
		partial = true
	}
	if s.dashboard != nil {
		s.dashboard.InvalidateUser(ctx, session.Email())
	}
	out := dto.NewActionResponse(res, list.Snapshot())
	out.Partial = partial
	return out, nil
}

// Delete removes one of the caller's lessons after confirmation. The row
// leaves the list before the backend call and returns if the call fails.
func (s *LessonService) Delete(ctx context.Context, session *models.Session, id string, confirmed bool) (dto.ActionResponse[models.Lesson], error) {
	list, err := s.owned(ctx, session, id)
	if err != nil {
		return dto.ActionResponse[models.Lesson]{}, err
	}
	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action: "lesson.delete_own",
		Policy: reconcile.PolicyOptimistic,
		Confirm: &reconcile.Confirmation{
			Title:      "Delete this lesson?",
			Message:    "The lesson is removed for everyone. This cannot be undone.",
			ActionText: "Delete",
			Danger:     true,
		},
		Confirmed: confirmed,
		Apply:     func() func() { return list.Remove(id) },
		Remote:    func(ctx context.Context) error { return s.lessons.Delete(ctx, id) },
		Success:   "Lesson deleted",
		Failure:   "Could not delete the lesson",
	})
	if res.Applied && s.dashboard != nil {
		s.dashboard.InvalidateUser(ctx, session.Email())
	}
	return dto.NewActionResponse(res, list.Snapshot()), err
}

// owned returns the caller's list once it holds id, reloading it once.
// Lessons of other authors are never in the list and read as not found.
func (s *LessonService) owned(ctx context.Context, session *models.Session, id string) (*reconcile.List[models.Lesson], error) {
	list := s.list(session)
	if _, ok := list.Find(id); ok {
		return list, nil
	}
	view, err := s.MyLessons(ctx, session)
	if err != nil {
		return nil, err
	}
	if view.Degraded {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "lessons are unavailable")
	}
	if _, ok := list.Find(id); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	return list, nil
}

func (s *LessonService) premium(ctx context.Context, session *models.Session) bool {
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

func (s *LessonService) list(session *models.Session) *reconcile.List[models.Lesson] {
	return reconcile.ListFor(s.registry, "lessons:"+profileKey(session.Email()), lessonID)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
