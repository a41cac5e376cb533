package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitRejectsOverBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewLimiterStore(1, 2, 0)
	defer store.Stop()

	router := gin.New()
	router.POST("/checkout", RateLimit(store, func(*gin.Context) string { return "k" }), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestLimiterStoreSweepDropsIdleKeys(t *testing.T) {
	store := NewLimiterStore(60, 1, 0)
	defer store.Stop()

	store.Allow("a")
	store.sweep(time.Now().Add(time.Second))
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.clients)
}

func TestKeyBySessionOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "ip:10.0.0.1", KeyBySessionOrIP(c))
}
