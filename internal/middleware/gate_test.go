package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

type stubResolver struct {
	sessions map[string]*models.Session
	err      error
}

func (s *stubResolver) Resolve(_ context.Context, credential string) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	session, ok := s.sessions[credential]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return session, nil
}

type decisionCounter map[string]int

func (d decisionCounter) RecordGateDecision(decision string) { d[decision]++ }

func newGateRouter(resolver SessionResolver, guard gin.HandlerFunc, ran *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Session(resolver, "wisdom_session", nil))
	router.GET("/protected", guard, func(c *gin.Context) {
		*ran = true
		c.JSON(http.StatusOK, gin.H{"credential": apiclient.CredentialFromContext(c.Request.Context())})
	})
	return router
}

func resolverWith() *stubResolver {
	return &stubResolver{sessions: map[string]*models.Session{
		"admin-token":  {Identity: models.Identity{Email: "root@x.io"}, Role: models.RoleAdmin},
		"member-token": {Identity: models.Identity{Email: "me@x.io"}, Role: models.RoleUser},
	}}
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestDecide(t *testing.T) {
	admin := &models.Session{Role: models.RoleAdmin}
	member := &models.Session{Role: models.RoleUser}

	assert.Equal(t, DecisionLoading, Decide(GateState{Identity: StatePending}, models.RoleAdmin))
	assert.Equal(t, DecisionDenied, Decide(GateState{Identity: StateAnonymous}, models.RoleAdmin))
	assert.Equal(t, DecisionDenied, Decide(GateState{Identity: StateAnonymous}, ""))
	assert.Equal(t, DecisionDenied, Decide(GateState{Identity: StateResolved, Session: member}, models.RoleAdmin))
	assert.Equal(t, DecisionAllowed, Decide(GateState{Identity: StateResolved, Session: admin}, models.RoleAdmin))
	assert.Equal(t, DecisionAllowed, Decide(GateState{Identity: StateResolved, Session: member}, ""))
}

func TestRequireAdminAllowsAdminAndForwardsCredential(t *testing.T) {
	var ran bool
	counter := decisionCounter{}
	router := newGateRouter(resolverWith(), RequireAdmin(counter), &ran)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
	assert.Contains(t, rec.Body.String(), "admin-token")
	assert.Equal(t, 1, counter["allowed"])
}

func TestRequireAdminDeniesMemberWithForbiddenView(t *testing.T) {
	var ran bool
	router := newGateRouter(resolverWith(), RequireAdmin(nil), &ran)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "wisdom_session", Value: "member-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran, "handler must not run when denied")
	env := decodeView(t, rec)
	require.NotNil(t, env.View)
	assert.Equal(t, response.ViewForbidden, env.View.Name)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestRequireAdminDeniesAnonymous(t *testing.T) {
	var ran bool
	router := newGateRouter(resolverWith(), RequireAdmin(nil), &ran)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran)
}

func TestGateHoldsPendingIdentityInLoading(t *testing.T) {
	var ran bool
	resolver := &stubResolver{err: appErrors.ErrIdentityPending}
	counter := decisionCounter{}
	router := newGateRouter(resolver, RequireAdmin(counter), &ran)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.False(t, ran, "handler must not run while loading")
	env := decodeView(t, rec)
	require.NotNil(t, env.View)
	assert.Equal(t, response.ViewLoading, env.View.Name)
	assert.Nil(t, env.Data)
	assert.Equal(t, 1, counter["loading"])
}

func TestRequireSessionAsksAnonymousToSignIn(t *testing.T) {
	var ran bool
	router := newGateRouter(resolverWith(), RequireSession(nil), &ran)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer unknown")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, ran)
	env := decodeView(t, rec)
	require.NotNil(t, env.View)
	assert.Equal(t, response.ViewLoginRequired, env.View.Name)
}

func TestRequireSessionAllowsMember(t *testing.T) {
	var ran bool
	router := newGateRouter(resolverWith(), RequireSession(nil), &ran)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer member-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
}
