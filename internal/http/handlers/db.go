package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/http/response"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
	"github.com/yungbote/cliq-relay-backend/internal/services"
)

type DBHandler struct {
	log   *logger.Logger
	probe services.DBProbeService
}

func NewDBHandler(log *logger.Logger, probe services.DBProbeService) *DBHandler {
	return &DBHandler{log: log.With("handler", "DBHandler"), probe: probe}
}

// GET /api/db/test
func (h *DBHandler) Test(c *gin.Context) {
	now, err := h.probe.Now(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "ok", "time": now})
}
