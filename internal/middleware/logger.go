package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware puts logger on the context under "logger" and writes one
// access line per call. Rejected calls (4xx) log at info, failures at warn.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Set("logger", logger)
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelDebug
		switch {
		case status >= 500:
			level = slog.LevelWarn
		case status >= 400:
			level = slog.LevelInfo
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"request_id", c.GetString("request_id"),
			"elapsed", time.Since(start),
		}
		if id := c.Param("id"); id != "" {
			attrs = append(attrs, "resource", id)
		}
		if code, ok := c.Get("status_code"); ok {
			attrs = append(attrs, "service_code", code)
		}
		logger.Log(c.Request.Context(), level, "api call", attrs...)
	}
}
