package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/metrics"
)

// Observe records every request in m and logs it at debug, or at warn for
// server errors.
func Observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		d := time.Since(start)
		status := c.Writer.Status()
		m.ObserveRequest(c.Request.Method, c.FullPath(), status, d)

		attrs := []any{"method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "dur_ms", d.Milliseconds()}
		if user := UserName(c); user != "" {
			attrs = append(attrs, "user", user)
		}
		if status >= 500 {
			slog.Warn("http.request", attrs...)
			return
		}
		slog.Debug("http.request", attrs...)
	}
}
