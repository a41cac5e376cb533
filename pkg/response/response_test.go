package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONWritesDataAndMeta(t *testing.T) {
	c, w := newContext()

	JSON(c, http.StatusOK, map[string]string{"title": "Grit"}, map[string]interface{}{"degraded": true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.JSONEq(t, `{"title":"Grit"}`, string(body["data"]))
	assert.JSONEq(t, `{"degraded":true}`, string(body["meta"]))
	assert.NotContains(t, body, "error")
	assert.NotContains(t, body, "view")
}

func TestJSONWithoutMetaOmitsIt(t *testing.T) {
	c, w := newContext()

	Created(c, map[string]string{"id": "u1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 1)
}

func TestErrorUsesAppErrorStatus(t *testing.T) {
	c, w := newContext()

	Error(c, appErrors.Clone(appErrors.ErrNotFound, "lesson not found"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newContext()
	Error(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestViewRendersFallbackPage(t *testing.T) {
	c, w := newContext()

	View(c, http.StatusNotFound, FallbackView{Name: ViewNotFound, Title: "Page not found"})

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.View)
	assert.Equal(t, ViewNotFound, env.View.Name)
	assert.Nil(t, env.Error)
}
