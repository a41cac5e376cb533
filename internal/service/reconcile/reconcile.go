// Package reconcile runs the mutation-and-reconcile flow shared by every
// interactive action: optional confirmation, an optimistic or after-success
// local update, the remote call, rollback on failure and a user-facing notice.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

// Policy decides when the local list changes relative to the remote call.
type Policy int

const (
	// PolicyOptimistic edits the list first and rolls back if the call fails.
	PolicyOptimistic Policy = iota
	// PolicyAfterSuccess edits the list only once the call succeeded.
	PolicyAfterSuccess
)

func (p Policy) String() string {
	if p == PolicyOptimistic {
		return "optimistic"
	}
	return "after_success"
}

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is the toast shown after an action.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Confirmation is the dialog a destructive action must clear first.
type Confirmation struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	ActionText string `json:"actionText"`
	Danger     bool   `json:"danger"`
}

// ConfirmationError is returned when an action needs confirmation the caller has not given.
type ConfirmationError struct {
	Dialog Confirmation
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("confirmation required: %s", e.Dialog.Title)
}

// Unwrap lets appErrors.FromError map the error to 412.
func (e *ConfirmationError) Unwrap() error {
	return appErrors.ErrConfirmationRequired
}

// Mutation describes one action.
type Mutation struct {
	Action    string
	Policy    Policy
	Confirm   *Confirmation
	Confirmed bool
	// Apply edits local state and returns the rollback.
	Apply  func() (rollback func())
	Remote func(ctx context.Context) error
	// Success and Failure are the notice messages.
	Success string
	Failure string
}

// Result describes what happened to local state.
type Result struct {
	Notice     Notice `json:"notice"`
	Applied    bool   `json:"applied"`
	RolledBack bool   `json:"rolledBack,omitempty"`
}

// Recorder receives mutation outcomes.
type Recorder interface {
	RecordMutation(action, outcome string)
}

// Runner executes mutations.
type Runner struct {
	logger   *zap.Logger
	recorder Recorder
}

// NewRunner constructs a Runner. recorder may be nil.
func NewRunner(logger *zap.Logger, recorder Recorder) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, recorder: recorder}
}

// Run executes m. A failed remote call yields both a Result carrying an error
// notice and a typed error for the HTTP layer.
func (r *Runner) Run(ctx context.Context, m Mutation) (Result, error) {
	if m.Confirm != nil && !m.Confirmed {
		r.record(m.Action, "confirmation_required")
		return Result{}, &ConfirmationError{Dialog: *m.Confirm}
	}
	if m.Remote == nil {
		return Result{}, fmt.Errorf("reconcile: %s has no remote call", m.Action)
	}

	if m.Policy == PolicyOptimistic {
		rollback := r.apply(m)
		if err := m.Remote(ctx); err != nil {
			rollback()
			r.logger.Warn("mutation rolled back",
				zap.String("action", m.Action),
				zap.String("policy", m.Policy.String()),
				zap.Error(err),
			)
			r.record(m.Action, "rolled_back")
			return Result{Notice: failureNotice(m), RolledBack: true}, Upstream(err, failureMessage(m))
		}
		r.record(m.Action, "applied")
		return Result{Notice: Notice{Level: LevelSuccess, Message: m.Success}, Applied: true}, nil
	}

	if err := m.Remote(ctx); err != nil {
		r.logger.Warn("mutation failed",
			zap.String("action", m.Action),
			zap.String("policy", m.Policy.String()),
			zap.Error(err),
		)
		r.record(m.Action, "failed")
		return Result{Notice: failureNotice(m)}, Upstream(err, failureMessage(m))
	}
	r.apply(m)
	r.record(m.Action, "applied")
	return Result{Notice: Notice{Level: LevelSuccess, Message: m.Success}, Applied: true}, nil
}

// Warn downgrades a successful result to a warning, used when a follow-up write failed.
func Warn(res Result, message string) Result {
	res.Notice = Notice{Level: LevelWarning, Message: message}
	return res
}

func (r *Runner) apply(m Mutation) func() {
	if m.Apply == nil {
		return func() {}
	}
	rollback := m.Apply()
	if rollback == nil {
		return func() {}
	}
	return rollback
}

func (r *Runner) record(action, outcome string) {
	if r.recorder != nil {
		r.recorder.RecordMutation(action, outcome)
	}
}

func failureNotice(m Mutation) Notice {
	return Notice{Level: LevelError, Message: failureMessage(m)}
}

func failureMessage(m Mutation) string {
	if m.Failure != "" {
		return m.Failure
	}
	return "Something went wrong. Please try again."
}

// Upstream maps a remote failure to a typed error carrying a short message.
// Typed errors pass through unchanged.
func Upstream(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return err
	}
	switch apiclient.StatusOf(err) {
	case http.StatusUnauthorized:
		return appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, message)
	case http.StatusForbidden:
		return appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, message)
	case http.StatusNotFound:
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, message)
}
