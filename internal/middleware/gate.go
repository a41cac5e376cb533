package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

// Decision is the outcome of an authorization gate.
type Decision string

const (
	DecisionLoading Decision = "loading"
	DecisionDenied  Decision = "denied"
	DecisionAllowed Decision = "allowed"
)

// retryAfterSeconds is advertised while identity resolution is pending.
const retryAfterSeconds = 2

// GateState is what a gate knows about the caller.
type GateState struct {
	Identity IdentityState
	Session  *models.Session
}

// Decide maps a gate state to a decision. An empty role admits any resolved session.
func Decide(state GateState, role models.UserRole) Decision {
	switch state.Identity {
	case StatePending:
		return DecisionLoading
	case StateResolved:
		if state.Session == nil {
			return DecisionDenied
		}
		if role == "" || state.Session.Role.Normalize() == role {
			return DecisionAllowed
		}
		return DecisionDenied
	}
	return DecisionDenied
}

type gateRecorder interface {
	RecordGateDecision(decision string)
}

// RequireAdmin only lets resolved admin sessions through. Everyone else,
// including anonymous callers, gets the forbidden view.
func RequireAdmin(metrics gateRecorder) gin.HandlerFunc {
	return gate(metrics, models.RoleAdmin, func(c *gin.Context, _ GateState) {
		response.Fallback(c, appErrors.Clone(appErrors.ErrForbidden, "admin access required"), response.FallbackView{
			Name:       response.ViewForbidden,
			Title:      "Access denied",
			Message:    "You do not have permission to view this page.",
			ActionText: "Back to dashboard",
			ActionHref: "/dashboard",
		})
	})
}

// RequireSession lets any resolved session through. Anonymous callers get the
// login_required view.
func RequireSession(metrics gateRecorder) gin.HandlerFunc {
	return gate(metrics, "", func(c *gin.Context, _ GateState) {
		response.Fallback(c, appErrors.Clone(appErrors.ErrUnauthorized, "sign in to continue"), response.FallbackView{
			Name:       response.ViewLoginRequired,
			Title:      "Sign in required",
			Message:    "Please sign in to continue.",
			ActionText: "Sign in",
			ActionHref: "/login",
		})
	})
}

func gate(metrics gateRecorder, role models.UserRole, deny func(*gin.Context, GateState)) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := SessionFromContext(c)
		state := GateState{Identity: IdentityStateFromContext(c), Session: session}
		decision := Decide(state, role)
		if metrics != nil {
			metrics.RecordGateDecision(string(decision))
		}

		switch decision {
		case DecisionAllowed:
			c.Next()
		case DecisionLoading:
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
			response.Fallback(c, appErrors.ErrIdentityPending, response.FallbackView{
				Name:    response.ViewLoading,
				Title:   "Loading",
				Message: "We are still checking your account. Please retry shortly.",
			})
		default:
			deny(c, state)
		}
	}
}
