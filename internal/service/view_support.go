package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/models"
)

type userLister interface {
	List(ctx context.Context) ([]models.User, error)
}

type lessonLister interface {
	List(ctx context.Context, filter models.LessonFilter) (*models.LessonList, error)
}

type reportLister interface {
	List(ctx context.Context) ([]models.Report, error)
}

type contributorBoard interface {
	TopOfWeek(ctx context.Context) ([]models.Contributor, error)
}

type favoriteLister interface {
	ListByEmail(ctx context.Context, email string) ([]models.Favorite, error)
}

type likeLister interface {
	ListByEmail(ctx context.Context, email string) ([]models.Like, error)
}

// ViewConfig is shared by every view service.
type ViewConfig struct {
	Timeout time.Duration
}

// viewSupport bundles what each view needs to fan out fetches and fall back
// to an empty default when one of them fails.
type viewSupport struct {
	logger  *zap.Logger
	metrics *MetricsService
	timeout time.Duration
	now     func() time.Time
}

func newViewSupport(logger *zap.Logger, metrics *MetricsService, cfg ViewConfig) viewSupport {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return viewSupport{logger: logger, metrics: metrics, timeout: cfg.Timeout, now: time.Now}
}

func (v viewSupport) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, v.timeout)
}

func (v viewSupport) degraded(view string, err error) {
	v.logger.Warn("view degraded", zap.String("view", view), zap.Error(err))
	v.metrics.RecordDegradedView(view)
}

func boolPtr(v bool) *bool { return &v }

func lessonsOf(list *models.LessonList) ([]models.Lesson, int) {
	if list == nil {
		return []models.Lesson{}, 0
	}
	lessons := list.Result
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	return lessons, list.Total
}

func lessonID(l models.Lesson) string     { return l.ID }
func favoriteID(f models.Favorite) string { return f.ID }
func userID(u models.User) string         { return u.ID }
func caseID(c models.ReportCase) string   { return c.PostID }
