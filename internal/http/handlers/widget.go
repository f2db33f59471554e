package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/http/middleware"
	"github.com/yungbote/cliq-relay-backend/internal/http/response"
	"github.com/yungbote/cliq-relay-backend/internal/normalization"
	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
	"github.com/yungbote/cliq-relay-backend/internal/services"
)

type WidgetHandler struct {
	log    *logger.Logger
	widget services.WidgetService
}

func NewWidgetHandler(log *logger.Logger, widget services.WidgetService) *WidgetHandler {
	return &WidgetHandler{log: log.With("handler", "WidgetHandler"), widget: widget}
}

// GET /api/widget/config?user_id=
func (h *WidgetHandler) GetConfig(c *gin.Context) {
	view, err := h.widget.Get(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{
		"ok":     true,
		"user":   view.User,
		"config": view.Config,
	})
}

// POST /api/widget/config
// body: { "user_id": "...", "config": { ... } }
func (h *WidgetHandler) SaveConfig(c *gin.Context) {
	body := middleware.NormalizedBody(c)
	userID, _ := body.String("user_id")
	cfg, err := configJSON(body)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	saved, err := h.widget.Save(c.Request.Context(), userID, cfg)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "saved": saved})
}

// configJSON reads "config" from either encoding. A plain form field holds
// the JSON text itself; config[key]=value pairs arrive already folded.
func configJSON(body *normalization.Body) (json.RawMessage, error) {
	v, ok := body.Fields["config"]
	if !ok || v == nil {
		return nil, nil
	}
	if s, isString := v.(string); isString && body.Form {
		s = strings.TrimSpace(s)
		if !json.Valid([]byte(s)) {
			return nil, apierr.Validation("config must be valid JSON")
		}
		return json.RawMessage(s), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apierr.Validation("config must be valid JSON")
	}
	return raw, nil
}
