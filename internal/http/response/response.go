package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

// RespondError writes {"error": code, "detail": msg} plus any extra fields.
func RespondError(c *gin.Context, status int, code string, err error, extra map[string]any) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	body := gin.H{"error": code, "detail": msg}
	for k, v := range extra {
		if k == "error" || k == "detail" {
			continue
		}
		body[k] = v
	}
	c.JSON(status, body)
}

// RespondAPIError translates err through apierr. Server-side failures are
// logged with the request path.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.From(err)
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := ae.Code
	if code == "" {
		code = apierr.CodeInternal
	}
	if status >= 500 && log != nil {
		log.Error("request failed",
			"path", c.FullPath(),
			"code", code,
			"error", err,
		)
	}
	var public error = ae
	if msg, ok := opaqueDetail[code]; ok {
		public = errors.New(msg)
	}
	RespondError(c, status, code, public, ae.Details)
}

// Driver and runtime error text stays in the log; clients get a fixed line.
var opaqueDetail = map[string]string{
	apierr.CodePersistence: "storage failure",
	apierr.CodeInternal:    "internal error",
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
