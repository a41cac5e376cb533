package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/aggregate"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
	"github.com/noah-isme/wisdom-gateway/pkg/export"
)

const reportListKey = "reports"

type reportStore interface {
	reportLister
	Delete(ctx context.Context, id string) error
}

type lessonDeleter interface {
	Delete(ctx context.Context, id string) error
}

type caseFileRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ReportService backs the admin report cases page.
type ReportService struct {
	viewSupport
	reports   reportStore
	lessons   lessonDeleter
	registry  *reconcile.Registry
	runner    *reconcile.Runner
	dashboard dashboardInvalidator
	pdf       caseFileRenderer
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Reports   reportStore
	Lessons   lessonDeleter
	Registry  *reconcile.Registry
	Runner    *reconcile.Runner
	Dashboard dashboardInvalidator
	PDF       caseFileRenderer
	Metrics   *MetricsService
	Logger    *zap.Logger
	Config    ViewConfig
}

// NewReportService constructs a ReportService.
func NewReportService(params ReportServiceParams) *ReportService {
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{
		viewSupport: newViewSupport(params.Logger, params.Metrics, params.Config),
		reports:     params.Reports,
		lessons:     params.Lessons,
		registry:    params.Registry,
		runner:      params.Runner,
		dashboard:   params.Dashboard,
		pdf:         pdf,
	}
}

// Cases groups every report by lesson, most recently reported first.
func (s *ReportService) Cases(ctx context.Context) (*dto.ReportCasesView, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	reports, err := s.reports.List(ctx)
	if err != nil {
		s.degraded("report_cases", err)
		return &dto.ReportCasesView{Cases: []models.ReportCase{}, Degraded: true}, nil
	}
	cases := aggregate.SortCasesByLatest(aggregate.GroupReports(reports))
	s.list().Replace(cases)
	return &dto.ReportCasesView{Cases: cases, TotalReports: len(reports)}, nil
}

// Dismiss deletes every report of the case and keeps the lesson.
func (s *ReportService) Dismiss(ctx context.Context, postID string, confirmed bool) (dto.ActionResponse[models.ReportCase], error) {
	list, target, err := s.lookup(ctx, postID)
	if err != nil {
		return dto.ActionResponse[models.ReportCase]{}, err
	}
	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action: "report.dismiss",
		Policy: reconcile.PolicyOptimistic,
		Confirm: &reconcile.Confirmation{
			Title:      "Dismiss these reports?",
			Message:    fmt.Sprintf("%s report(s) against %q will be removed. The lesson stays published.", strconv.Itoa(target.Count), target.Title),
			ActionText: "Dismiss",
		},
		Confirmed: confirmed,
		Apply:     func() func() { return list.Remove(postID) },
		Remote:    func(ctx context.Context) error { return s.deleteReports(ctx, target) },
		Success:   "Reports dismissed",
		Failure:   "Could not dismiss the reports",
	})
	s.afterMutation(ctx, res)
	s.reseedAfterRollback(ctx, res)
	return dto.NewActionResponse(res, list.Snapshot()), err
}

// DeleteLesson removes the reported lesson and then every report of its case.
func (s *ReportService) DeleteLesson(ctx context.Context, postID string, confirmed bool) (dto.ActionResponse[models.ReportCase], error) {
	list, target, err := s.lookup(ctx, postID)
	if err != nil {
		return dto.ActionResponse[models.ReportCase]{}, err
	}
	res, err := s.runner.Run(ctx, reconcile.Mutation{
		Action: "report.delete_lesson",
		Policy: reconcile.PolicyOptimistic,
		Confirm: &reconcile.Confirmation{
			Title:      "Delete the reported lesson?",
			Message:    fmt.Sprintf("%q and its %d report(s) will be permanently removed.", target.Title, target.Count),
			ActionText: "Delete lesson",
			Danger:     true,
		},
		Confirmed: confirmed,
		Apply:     func() func() { return list.Remove(postID) },
		Remote: func(ctx context.Context) error {
			if err := s.lessons.Delete(ctx, postID); err != nil && !alreadyGone(err) {
				return err
			}
			return s.deleteReports(ctx, target)
		},
		Success: "Lesson and reports deleted",
		Failure: "Could not delete the lesson",
	})
	s.afterMutation(ctx, res)
	s.reseedAfterRollback(ctx, res)
	return dto.NewActionResponse(res, list.Snapshot()), err
}

// CaseFile renders the PDF case file for one report case.
func (s *ReportService) CaseFile(ctx context.Context, postID string) ([]byte, string, error) {
	view, err := s.Cases(ctx)
	if err != nil {
		return nil, "", err
	}
	if view.Degraded {
		return nil, "", appErrors.Clone(appErrors.ErrUpstream, "reports are unavailable")
	}
	var target *models.ReportCase
	for i := range view.Cases {
		if view.Cases[i].PostID == postID {
			target = &view.Cases[i]
			break
		}
	}
	if target == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report case not found")
	}

	rows := make([]map[string]string, 0, len(target.Reports))
	for _, r := range target.Reports {
		rows = append(rows, map[string]string{
			"Reported at": formatTime(r.ReportedAt),
			"Reporter":    r.ReportedUserEmail,
			"Reason":      r.ReportReason,
			"Details":     r.ReportDetails,
		})
	}
	doc := export.Document{
		Title:    "Moderation case file",
		Subtitle: target.Title,
		Fields: []export.Field{
			{Label: "Lesson ID", Value: target.PostID},
			{Label: "Reports", Value: strconv.Itoa(target.Count)},
			{Label: "Latest report", Value: target.LatestReportAt.UTC().Format("Jan 2, 2006 15:04 MST")},
		},
		Table: export.Dataset{
			Headers: []string{"Reported at", "Reporter", "Reason", "Details"},
			Rows:    rows,
		},
		Footer: "Generated " + s.now().UTC().Format("2006-01-02 15:04 MST"),
	}
	payload, err := s.pdf.Render(doc)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render case file")
	}
	return payload, fmt.Sprintf("case-%s.pdf", postID), nil
}

// deleteReports removes every report of the case. A report the backend no
// longer has counts as deleted, so a retry after a partial failure resumes.
func (s *ReportService) deleteReports(ctx context.Context, target models.ReportCase) error {
	for _, id := range target.ReportIDs() {
		if err := s.reports.Delete(ctx, id); err != nil && !alreadyGone(err) {
			return err
		}
	}
	return nil
}

// reseedAfterRollback replaces the restored snapshot with the backend's
// current cases. A failed multi-step delete may have removed some reports.
func (s *ReportService) reseedAfterRollback(ctx context.Context, res reconcile.Result) {
	if !res.RolledBack {
		return
	}
	if _, err := s.Cases(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("reload report cases after rollback", zap.Error(err))
	}
}

func alreadyGone(err error) bool {
	return apiclient.StatusOf(err) == http.StatusNotFound
}

func (s *ReportService) list() *reconcile.List[models.ReportCase] {
	return reconcile.ListFor(s.registry, reportListKey, caseID)
}

func (s *ReportService) lookup(ctx context.Context, postID string) (*reconcile.List[models.ReportCase], models.ReportCase, error) {
	list := s.list()
	target, ok := list.Find(postID)
	if !ok {
		view, err := s.Cases(ctx)
		if err != nil {
			return nil, models.ReportCase{}, err
		}
		if view.Degraded {
			return nil, models.ReportCase{}, appErrors.Clone(appErrors.ErrUpstream, "reports are unavailable")
		}
		if target, ok = list.Find(postID); !ok {
			return nil, models.ReportCase{}, appErrors.Clone(appErrors.ErrNotFound, "report case not found")
		}
	}
	return list, target, nil
}

func (s *ReportService) afterMutation(ctx context.Context, res reconcile.Result) {
	if res.Applied && s.dashboard != nil {
		s.dashboard.InvalidateAdmin(ctx)
	}
}

func formatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format("2006-01-02 15:04")
}
