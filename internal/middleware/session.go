package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

const (
	// ContextSessionKey is the gin context key storing the resolved session.
	ContextSessionKey       = "currentSession"
	contextIdentityStateKey = "identityState"
)

// IdentityState records how far identity resolution got for a request.
type IdentityState int

const (
	// StateAnonymous means no usable credential was presented.
	StateAnonymous IdentityState = iota
	// StatePending means the credential verified but the profile lookup did not complete.
	StatePending
	// StateResolved means the session is fully enriched.
	StateResolved
)

func (s IdentityState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	}
	return "anonymous"
}

// SessionResolver turns a credential into a Session.
type SessionResolver interface {
	Resolve(ctx context.Context, credential string) (*models.Session, error)
}

// Session resolves the caller's credential, if any, on every request. It never
// rejects a request itself; the gates decide what an unresolved identity may see.
func Session(resolver SessionResolver, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		credential := credentialFrom(c, cookieName)
		if credential == "" {
			c.Set(contextIdentityStateKey, StateAnonymous)
			c.Next()
			return
		}

		session, err := resolver.Resolve(c.Request.Context(), credential)
		switch {
		case err == nil:
			c.Set(ContextSessionKey, session)
			c.Set(contextIdentityStateKey, StateResolved)
			c.Request = c.Request.WithContext(apiclient.ContextWithCredential(c.Request.Context(), credential))
		case appErrors.Is(err, appErrors.ErrIdentityPending):
			logger.Warn("identity resolution pending", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Set(contextIdentityStateKey, StatePending)
		default:
			logger.Debug("credential rejected", zap.Error(err))
			c.Set(contextIdentityStateKey, StateAnonymous)
		}
		c.Next()
	}
}

// SessionFromContext returns the resolved session.
func SessionFromContext(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok && session != nil
}

// IdentityStateFromContext returns the resolution state recorded by Session.
func IdentityStateFromContext(c *gin.Context) IdentityState {
	value, exists := c.Get(contextIdentityStateKey)
	if !exists {
		return StateAnonymous
	}
	state, _ := value.(IdentityState)
	return state
}

func credentialFrom(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	value, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
