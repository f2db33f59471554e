package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/platform/ctxutil"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

// RequestLogger writes one line per request at a level chosen by status:
// 5xx errors, 4xx warnings, the rest info. Health probes log at debug.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes_out", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if corr, ok := ctxutil.CorrelationFrom(c.Request.Context()); ok {
			fields = append(fields, corr.LogFields()...)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, "errors", errs.String())
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		case route == "/healthcheck" || route == "/metrics":
			log.Debug("probe served", fields...)
		default:
			log.Info("request served", fields...)
		}
	}
}
