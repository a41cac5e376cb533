package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	viewMetaKey     = "view_meta"
	fromSnapshotKey = "from_snapshot"
	degradedKey     = "degraded"
	elapsedKey      = "elapsed_ms"
)

// WithViewMeta gives each request a meta map that handlers fill and the
// envelope carries. elapsed_ms is stamped once the handler returns.
func WithViewMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(viewMetaKey, map[string]interface{}{})
		c.Next()
		meta := viewMeta(c)
		if _, ok := meta[elapsedKey]; !ok {
			meta[elapsedKey] = time.Since(start).Milliseconds()
		}
	}
}

// MarkSnapshot records whether the view was served from a stored snapshot.
func MarkSnapshot(c *gin.Context, served bool) {
	viewMeta(c)[fromSnapshotKey] = served
}

// SetDegraded flags a view that fell back to its empty default.
func SetDegraded(c *gin.Context, degraded bool) {
	if degraded {
		viewMeta(c)[degradedKey] = true
	}
}

// ViewMeta returns the meta map of the request, nil outside WithViewMeta.
func ViewMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, ok := c.Get(viewMetaKey); ok {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func viewMeta(c *gin.Context) map[string]interface{} {
	if meta := ViewMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	if c != nil {
		c.Set(viewMetaKey, meta)
	}
	return meta
}
