package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/cliq-relay-backend/internal/http/handlers"
	httpMW "github.com/yungbote/cliq-relay-backend/internal/http/middleware"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	HealthHandler *httpH.HealthHandler
	BotHandler    *httpH.BotHandler
	WidgetHandler *httpH.WidgetHandler
	MLHandler     *httpH.MLHandler
	DBHandler     *httpH.DBHandler
	LegacyHandler *httpH.LegacyHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.NormalizeBody(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Small card passthrough
	if cfg.LegacyHandler != nil {
		r.POST("/predict", cfg.LegacyHandler.Predict)
	}

	api := r.Group("/api")
	{
		if cfg.BotHandler != nil {
			api.POST("/bot/webhook", cfg.BotHandler.Webhook)
		}

		if cfg.WidgetHandler != nil {
			api.GET("/widget/config", cfg.WidgetHandler.GetConfig)
			api.POST("/widget/config", cfg.WidgetHandler.SaveConfig)
		}

		if cfg.MLHandler != nil {
			api.POST("/ml/predict", cfg.MLHandler.Predict)
			api.GET("/ml/history", cfg.MLHandler.History)
			api.GET("/ml/metrics", cfg.MLHandler.Metrics)
			api.GET("/ml/status", cfg.MLHandler.Status)
			api.POST("/ml/alerts", cfg.MLHandler.Alerts)
		}

		if cfg.DBHandler != nil {
			api.GET("/db/test", cfg.DBHandler.Test)
		}
	}

	return r
}
