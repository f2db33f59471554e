package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/http/middleware"
	"github.com/yungbote/cliq-relay-backend/internal/http/response"
	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
	"github.com/yungbote/cliq-relay-backend/internal/services"
)

type BotHandler struct {
	log *logger.Logger
	bot services.BotService
}

func NewBotHandler(log *logger.Logger, bot services.BotService) *BotHandler {
	return &BotHandler{log: log.With("handler", "BotHandler"), bot: bot}
}

// POST /api/bot/webhook
// body: { "message": "...", "user": { "id": "...", "name": "...", "email": "..." } }
// Form bodies use message=...&user[id]=...
func (h *BotHandler) Webhook(c *gin.Context) {
	req, err := decodeBotMessage(c)
	if err != nil {
		response.RespondAPIError(c, h.log, apierr.Validation("Invalid payload. Require message and user.id"))
		return
	}
	text, err := h.bot.HandleMessage(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func decodeBotMessage(c *gin.Context) (services.BotMessage, error) {
	var req services.BotMessage
	if body := middleware.NormalizedBody(c); body.Form {
		// Folded form fields go through the same JSON shape.
		b, err := json.Marshal(body.Fields)
		if err != nil {
			return req, err
		}
		return req, json.Unmarshal(b, &req)
	}
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}
