package reconcile

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

type item struct {
	ID    string
	Label string
}

func itemID(i item) string { return i.ID }

type fakeRecorder struct {
	outcomes []string
}

func (f *fakeRecorder) RecordMutation(action, outcome string) {
	f.outcomes = append(f.outcomes, action+":"+outcome)
}

func seeded() *List[item] {
	list := NewList(itemID)
	list.Replace([]item{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	return list
}

func ids(items []item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.ID)
	}
	return out
}

func TestOptimisticRemovesBeforeRemoteAndRestoresOnFailure(t *testing.T) {
	list := seeded()
	rec := &fakeRecorder{}
	runner := NewRunner(zap.NewNop(), rec)

	var duringCall []string
	res, err := runner.Run(context.Background(), Mutation{
		Action: "favorite.remove",
		Policy: PolicyOptimistic,
		Apply:  func() func() { return list.Remove("b") },
		Remote: func(context.Context) error {
			duringCall = ids(list.Snapshot())
			return &apiclient.Error{Status: http.StatusInternalServerError, Message: "boom"}
		},
		Success: "Removed from favorites",
		Failure: "Could not remove favorite",
	})

	require.Error(t, err)
	assert.Equal(t, []string{"a", "c"}, duringCall)
	assert.Equal(t, []string{"a", "b", "c"}, ids(list.Snapshot()))
	assert.True(t, res.RolledBack)
	assert.Equal(t, Notice{Level: LevelError, Message: "Could not remove favorite"}, res.Notice)
	assert.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)
	assert.Equal(t, []string{"favorite.remove:rolled_back"}, rec.outcomes)
}

func TestOptimisticSuccessKeepsChange(t *testing.T) {
	list := seeded()
	res, err := NewRunner(nil, nil).Run(context.Background(), Mutation{
		Action:  "favorite.remove",
		Policy:  PolicyOptimistic,
		Apply:   func() func() { return list.Remove("a") },
		Remote:  func(context.Context) error { return nil },
		Success: "Removed",
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, LevelSuccess, res.Notice.Level)
	assert.Equal(t, []string{"b", "c"}, ids(list.Snapshot()))
}

func TestAfterSuccessAppliesOnlyWhenRemoteSucceeds(t *testing.T) {
	list := seeded()
	runner := NewRunner(nil, nil)
	rename := func() func() {
		return list.Update("a", func(i item) item { i.Label = "approved"; return i })
	}

	var duringCall item
	_, err := runner.Run(context.Background(), Mutation{
		Action: "lesson.approve",
		Policy: PolicyAfterSuccess,
		Apply:  rename,
		Remote: func(context.Context) error {
			duringCall, _ = list.Find("a")
			return nil
		},
	})
	require.NoError(t, err)
	assert.Empty(t, duringCall.Label)
	got, _ := list.Find("a")
	assert.Equal(t, "approved", got.Label)

	list = seeded()
	res, err := runner.Run(context.Background(), Mutation{
		Action: "lesson.approve",
		Policy: PolicyAfterSuccess,
		Apply:  rename,
		Remote: func(context.Context) error { return &apiclient.Error{Status: http.StatusForbidden} },
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
	assert.False(t, res.Applied)
	got, _ = list.Find("a")
	assert.Empty(t, got.Label)
}

func TestConfirmationRequired(t *testing.T) {
	called := false
	m := Mutation{
		Action:  "user.delete",
		Policy:  PolicyAfterSuccess,
		Confirm: &Confirmation{Title: "Delete user?", ActionText: "Delete", Danger: true},
		Remote:  func(context.Context) error { called = true; return nil },
	}

	_, err := NewRunner(nil, nil).Run(context.Background(), m)
	var confirmErr *ConfirmationError
	require.True(t, errors.As(err, &confirmErr))
	assert.True(t, confirmErr.Dialog.Danger)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfirmationRequired))
	assert.Equal(t, http.StatusPreconditionFailed, appErrors.FromError(err).Status)
	assert.False(t, called)

	m.Confirmed = true
	_, err = NewRunner(nil, nil).Run(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestUpstreamPassesTypedErrors(t *testing.T) {
	err := Upstream(appErrors.ErrPremiumRequired, "ignored")
	assert.Equal(t, appErrors.ErrPremiumRequired, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(Upstream(&apiclient.Error{Status: 404}, "gone")).Status)
	assert.Equal(t, "gone", appErrors.FromError(Upstream(&apiclient.Error{Status: 404}, "gone")).Message)
}

func TestListRemoveWhereRestoresPositions(t *testing.T) {
	list := seeded()
	restore := list.RemoveWhere(func(i item) bool { return i.ID != "b" })
	assert.Equal(t, []string{"b"}, ids(list.Snapshot()))
	restore()
	assert.Equal(t, []string{"a", "b", "c"}, ids(list.Snapshot()))

	assert.False(t, NewList(itemID).Seeded())
	assert.True(t, list.Seeded())
	list.Remove("missing")()
	assert.Len(t, list.Snapshot(), 3)
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	reg := NewRegistry(2)

	first := ListFor(reg, "favorites:a", itemID)
	first.Replace([]item{{ID: "x"}})
	ListFor(reg, "favorites:b", itemID)
	assert.Same(t, first, ListFor(reg, "favorites:a", itemID))

	ListFor(reg, "favorites:c", itemID)
	assert.Equal(t, 2, reg.Len())
	assert.Same(t, first, ListFor(reg, "favorites:a", itemID))
	assert.False(t, ListFor(reg, "favorites:b", itemID).Seeded())

	reg.Forget("favorites:a")
	assert.False(t, ListFor(reg, "favorites:a", itemID).Seeded())
}
