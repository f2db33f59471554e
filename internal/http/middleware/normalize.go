package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/http/response"
	"github.com/yungbote/cliq-relay-backend/internal/normalization"
	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

const normalizedBodyKey = "normalized_body"

// MaxBodyBytes caps an inbound POST body. Larger bodies are rejected with
// 413 before any handler runs.
const MaxBodyBytes = 1 << 20

// NormalizeBody canonicalizes every POST body before routing. The raw bytes
// are put back on the request so handlers that bind JSON see them intact.
// Parse failures are logged and the request continues.
func NormalizeBody(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.Request.Body == nil {
			c.Next()
			return
		}
		raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
		_ = c.Request.Body.Close()
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				if log != nil {
					log.Warn("request body too large", "path", c.Request.URL.Path, "limit", tooLarge.Limit)
				}
				response.RespondAPIError(c, log, apierr.TooLarge(tooLarge.Limit))
				c.Abort()
				return
			}
			if log != nil {
				log.Warn("read request body failed", "path", c.Request.URL.Path, "error", err)
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		body, nerr := normalization.Normalize(c.ContentType(), raw)
		if nerr != nil && log != nil {
			log.Warn("body normalization failed, passing through", "path", c.Request.URL.Path, "error", nerr)
		}
		if body.HasMetrics() && log != nil {
			log.Debug("normalized metrics", "metrics", len(body.Metrics), "form", body.Form)
		}
		c.Set(normalizedBodyKey, body)
		c.Next()
	}
}

// NormalizedBody returns the canonical body stored by NormalizeBody, or
// normalizes the request on the spot when the middleware did not run. An
// oversized body is left unread past the limit and yields an empty Body.
func NormalizedBody(c *gin.Context) *normalization.Body {
	if v, ok := c.Get(normalizedBodyKey); ok {
		if b, ok := v.(*normalization.Body); ok && b != nil {
			return b
		}
	}
	var raw []byte
	if c.Request != nil && c.Request.Body != nil {
		orig := c.Request.Body
		raw, _ = io.ReadAll(io.LimitReader(orig, MaxBodyBytes+1))
		c.Request.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(raw), orig), orig}
	}
	if len(raw) > MaxBodyBytes {
		raw = nil
	}
	body, _ := normalization.Normalize(c.ContentType(), raw)
	c.Set(normalizedBodyKey, body)
	return body
}
