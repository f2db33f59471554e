package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/features"
	"github.com/yungbote/cliq-relay-backend/internal/http/middleware"
	"github.com/yungbote/cliq-relay-backend/internal/http/response"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
	"github.com/yungbote/cliq-relay-backend/internal/services"
)

type MLHandlerDeps struct {
	Log        *logger.Logger
	Prediction services.PredictionService
	History    services.HistoryService
	Catalog    services.CatalogService
	Alerts     services.AlertService
}

type MLHandler struct {
	log        *logger.Logger
	prediction services.PredictionService
	history    services.HistoryService
	catalog    services.CatalogService
	alerts     services.AlertService
}

func NewMLHandler(deps MLHandlerDeps) *MLHandler {
	return &MLHandler{
		log:        deps.Log.With("handler", "MLHandler"),
		prediction: deps.Prediction,
		history:    deps.History,
		catalog:    deps.Catalog,
		alerts:     deps.Alerts,
	}
}

// POST /api/ml/predict
// body: { "resource_id": "...", "metrics": { "cpu": 55, ... } } or the
// bracket-encoded form equivalent.
func (h *MLHandler) Predict(c *gin.Context) {
	body := middleware.NormalizedBody(c)
	var resourceID *string
	if id, ok := body.String("resource_id"); ok && id != "" {
		resourceID = &id
	}
	out, err := h.prediction.PredictMetrics(c.Request.Context(), resourceID, body.Metrics)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/ml/history
func (h *MLHandler) History(c *gin.Context) {
	hist, err := h.history.History(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	trend := make([]services.TrendPoint, 0, len(hist.Rows))
	for p := range hist.CPUTrend() {
		trend = append(trend, p)
	}
	response.RespondOK(c, gin.H{
		"history_rows": hist.Rows,
		"cpu_trend":    trend,
	})
}

// GET /api/ml/metrics
func (h *MLHandler) Metrics(c *gin.Context) {
	response.RespondOK(c, gin.H{"metrics": h.catalog.Metrics()})
}

// GET /api/ml/status
func (h *MLHandler) Status(c *gin.Context) {
	st, err := h.history.Status(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, st)
}

// POST /api/ml/alerts
func (h *MLHandler) Alerts(c *gin.Context) {
	body := middleware.NormalizedBody(c)
	payload := make(map[string]any, len(body.Fields)+1)
	for k, v := range body.Fields {
		payload[k] = v
	}
	if body.HasMetrics() {
		payload["metrics"] = features.Received(body.Metrics)
	}
	msg := h.alerts.Accept(c.Request.Context(), payload)
	response.RespondOK(c, gin.H{"message": msg})
}
