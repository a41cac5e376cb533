package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

func newModerationFixture() (*ModerationService, *fakeLessons, *recordingDashboard) {
	lessons := &fakeLessons{log: &callLog{}, lessons: []models.Lesson{
		{ID: "l1", Status: models.LessonApproved, PostedAt: ts("2024-05-03T08:00:00Z")},
		{ID: "l2", Status: models.LessonPending, PostedAt: ts("2024-05-01T08:00:00Z")},
		{ID: "l3", Status: models.LessonApproved, IsFeatured: true, PostedAt: ts("2024-05-02T08:00:00Z")},
	}}
	dash := &recordingDashboard{}
	svc := NewModerationService(lessons, reconcile.NewRegistry(8), reconcile.NewRunner(zap.NewNop(), nil), dash, nil, zap.NewNop(), ViewConfig{})
	return svc, lessons, dash
}

func TestModerationServiceQueueOrdersPendingFirst(t *testing.T) {
	svc, _, _ := newModerationFixture()

	view, err := svc.Queue(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Lessons, 3)
	assert.Equal(t, "l2", view.Lessons[0].ID)
	assert.Equal(t, "l1", view.Lessons[1].ID)
	assert.Equal(t, dto.ModerationCounts{Total: 3, Pending: 1, Approved: 2, Featured: 1}, view.Counts)
}

func TestModerationServiceApproveNeedsConfirmation(t *testing.T) {
	svc, lessons, dash := newModerationFixture()
	ctx := context.Background()

	_, err := svc.Approve(ctx, "l2", false)
	require.Error(t, err)
	var confirmErr *reconcile.ConfirmationError
	require.True(t, errors.As(err, &confirmErr))
	assert.True(t, appErrors.Is(err, appErrors.ErrConfirmationRequired))
	assert.Zero(t, lessons.log.count("PATCH"))

	out, err := svc.Approve(ctx, "l2", true)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, 1, lessons.log.count("PATCH /lessons/l2/status approved"))
	assert.Equal(t, 1, dash.admin)
	for _, l := range out.Items {
		assert.True(t, l.Approved())
	}
}

func TestModerationServiceRemoveLessonRollsBack(t *testing.T) {
	svc, lessons, dash := newModerationFixture()
	lessons.deleteErr = assert.AnError

	out, err := svc.RemoveLesson(context.Background(), "l1", true)
	require.Error(t, err)
	assert.True(t, out.RolledBack)
	assert.Len(t, out.Items, 3)
	assert.Zero(t, dash.admin)
}

func TestModerationServiceSetFeatured(t *testing.T) {
	svc, lessons, _ := newModerationFixture()

	out, err := svc.SetFeatured(context.Background(), "l1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, lessons.log.count("PATCH /lessons/l1/featured true"))
	for _, l := range out.Items {
		if l.ID == "l1" {
			assert.True(t, bool(l.IsFeatured))
		}
	}
}
