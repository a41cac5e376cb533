package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

func newReportFixture() (*ReportService, *callLog, *fakeReports, *fakeLessons, *recordingDashboard) {
	log := &callLog{}
	reports := &fakeReports{log: log, reports: []models.Report{
		{ID: "r1", PostID: "p1", PostTitle: "Grit", ReportReason: "spam", ReportedAt: ts("2024-05-01T10:00:00Z")},
		{ID: "r2", PostID: "p1", PostTitle: "Grit", ReportReason: "abuse", ReportedAt: ts("2024-05-04T10:00:00Z")},
		{ID: "r3", PostID: "p2", ReportReason: "spam", ReportedAt: ts("2024-05-02T10:00:00Z")},
	}}
	lessons := &fakeLessons{log: log}
	dash := &recordingDashboard{}
	svc := NewReportService(ReportServiceParams{
		Reports:   reports,
		Lessons:   lessons,
		Registry:  reconcile.NewRegistry(8),
		Runner:    reconcile.NewRunner(zap.NewNop(), nil),
		Dashboard: dash,
		Logger:    zap.NewNop(),
	})
	return svc, log, reports, lessons, dash
}

func TestReportServiceCasesGroupedLatestFirst(t *testing.T) {
	svc, _, _, _, _ := newReportFixture()

	view, err := svc.Cases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalReports)
	require.Len(t, view.Cases, 2)
	assert.Equal(t, "p1", view.Cases[0].PostID)
	assert.Equal(t, 2, view.Cases[0].Count)
	assert.Equal(t, models.UntitledLesson, view.Cases[1].Title)
}

func TestReportServiceDismissDeletesEveryReport(t *testing.T) {
	svc, log, _, lessons, dash := newReportFixture()
	ctx := context.Background()

	_, err := svc.Dismiss(ctx, "p1", false)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfirmationRequired))
	assert.Zero(t, log.count("DELETE"))

	out, err := svc.Dismiss(ctx, "p1", true)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, 1, log.count("DELETE /reports/r1"))
	assert.Equal(t, 1, log.count("DELETE /reports/r2"))
	assert.Zero(t, lessons.log.count("DELETE /lessons"))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "p2", out.Items[0].PostID)
	assert.Equal(t, 1, dash.admin)
}

func TestReportServiceDeleteLessonOrder(t *testing.T) {
	svc, log, _, _, _ := newReportFixture()

	_, err := svc.DeleteLesson(context.Background(), "p1", true)
	require.NoError(t, err)

	deletes := []string{}
	for _, c := range log.all() {
		if len(c) > 6 && c[:6] == "DELETE" {
			deletes = append(deletes, c)
		}
	}
	assert.Equal(t, []string{"DELETE /lessons/p1", "DELETE /reports/r1", "DELETE /reports/r2"}, deletes)
}

func TestReportServiceDeleteLessonRestoresCaseOnFailure(t *testing.T) {
	svc, log, _, lessons, dash := newReportFixture()
	lessons.deleteErr = assert.AnError

	out, err := svc.DeleteLesson(context.Background(), "p1", true)
	require.Error(t, err)
	assert.True(t, out.RolledBack)
	assert.Len(t, out.Items, 2)
	assert.Zero(t, log.count("DELETE /reports"))
	assert.Zero(t, dash.admin)
}

func TestReportServiceUnknownCase(t *testing.T) {
	svc, _, _, _, _ := newReportFixture()

	_, err := svc.Dismiss(context.Background(), "missing", true)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestReportServiceCaseFileRendersPDF(t *testing.T) {
	svc, _, _, _, _ := newReportFixture()

	payload, filename, err := svc.CaseFile(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "case-p1.pdf", filename)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestReportServiceDismissRetryAfterPartialFailure(t *testing.T) {
	svc, log, reports, _, _ := newReportFixture()
	reports.failOnce = map[string]error{"r2": assert.AnError}
	ctx := context.Background()

	out, err := svc.Dismiss(ctx, "p1", true)
	require.Error(t, err)
	assert.True(t, out.RolledBack)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "p1", out.Items[0].PostID)
	assert.Equal(t, []string{"r2"}, out.Items[0].ReportIDs())

	out, err = svc.Dismiss(ctx, "p1", true)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "p2", out.Items[0].PostID)
	assert.Equal(t, 1, log.count("DELETE /reports/r1"))
	assert.Equal(t, 2, log.count("DELETE /reports/r2"))
	assert.Len(t, reports.reports, 1)
}

func TestReportServiceDeleteLessonTreatsMissingRecordsAsDone(t *testing.T) {
	svc, _, reports, lessons, _ := newReportFixture()
	lessons.deleteErr = &apiclient.Error{Status: http.StatusNotFound, Message: "lesson not found"}
	ctx := context.Background()

	_, err := svc.Cases(ctx)
	require.NoError(t, err)
	reports.reports = reports.reports[1:]

	out, err := svc.DeleteLesson(ctx, "p1", true)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "p2", out.Items[0].PostID)
}
