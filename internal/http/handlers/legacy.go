package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/http/middleware"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
	"github.com/yungbote/cliq-relay-backend/internal/services"
)

type LegacyHandler struct {
	log    *logger.Logger
	legacy services.LegacyService
}

func NewLegacyHandler(log *logger.Logger, legacy services.LegacyService) *LegacyHandler {
	return &LegacyHandler{log: log.With("handler", "LegacyHandler"), legacy: legacy}
}

// POST /predict
// Replies with the ML service body untouched. Any failure is reported the
// way the small card expects.
func (h *LegacyHandler) Predict(c *gin.Context) {
	body := middleware.NormalizedBody(c)
	raw, err := h.legacy.Forward(c.Request.Context(), services.LegacyPredictRequest{
		ResourceID: body.Fields["resource_id"],
		Metrics:    body.Metrics,
	})
	if err != nil {
		h.log.Error("legacy predict failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "ML service unreachable",
			"detail": err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
