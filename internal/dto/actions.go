package dto

import (
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
)

// ActionResponse is returned by every mutation endpoint: the notice plus the
// reconciled list of the affected view.
type ActionResponse[T any] struct {
	Notice     reconcile.Notice `json:"notice"`
	Items      []T              `json:"items"`
	Applied    bool             `json:"applied"`
	RolledBack bool             `json:"rolledBack,omitempty"`
	Partial    bool             `json:"partial,omitempty"`
}

// NewActionResponse combines a reconcile result with the list snapshot.
func NewActionResponse[T any](res reconcile.Result, items []T) ActionResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ActionResponse[T]{Notice: res.Notice, Items: items, Applied: res.Applied, RolledBack: res.RolledBack}
}

// ConfirmationResponse carries the dialog for a 412 response.
type ConfirmationResponse struct {
	Confirmation reconcile.Confirmation `json:"confirmation"`
}

// ProfileUpdateResponse returns the refreshed user record.
type ProfileUpdateResponse struct {
	Notice reconcile.Notice `json:"notice"`
	User   *models.User     `json:"user"`
}

// FeaturedToggleRequest is the body of PATCH /admin/lessons/:id/featured.
type FeaturedToggleRequest struct {
	IsFeatured models.Flag `json:"isFeatured"`
}

// CheckoutResponse carries the payment processor URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// PaymentSuccessResponse reports the outcome of a payment confirmation.
type PaymentSuccessResponse struct {
	Applied        bool             `json:"applied"`
	AlreadyApplied bool             `json:"alreadyApplied"`
	Notice         reconcile.Notice `json:"notice"`
	User           *models.User     `json:"user,omitempty"`
}

// SessionView is returned by GET /me.
type SessionView struct {
	Session *models.Session `json:"session"`
}
