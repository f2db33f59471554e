package app

import (
	apphttp "github.com/yungbote/cliq-relay-backend/internal/http"
	httpH "github.com/yungbote/cliq-relay-backend/internal/http/handlers"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Bot    *httpH.BotHandler
	Widget *httpH.WidgetHandler
	ML     *httpH.MLHandler
	DB     *httpH.DBHandler
	Legacy *httpH.LegacyHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Bot:    httpH.NewBotHandler(log, serviceset.Bot),
		Widget: httpH.NewWidgetHandler(log, serviceset.Widget),
		ML: httpH.NewMLHandler(httpH.MLHandlerDeps{
			Log:        log,
			Prediction: serviceset.Prediction,
			History:    serviceset.History,
			Catalog:    serviceset.Catalog,
			Alerts:     serviceset.Alerts,
		}),
		DB:     httpH.NewDBHandler(log, serviceset.DBProbe),
		Legacy: httpH.NewLegacyHandler(log, serviceset.Legacy),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlerset Handlers, metrics *observability.Metrics) *apphttp.Server {
	log.Info("Wiring router...")
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:           log,
		ServiceName:   serviceName,
		CORSOrigins:   cfg.CORSOrigins,
		Metrics:       metrics,
		HealthHandler: handlerset.Health,
		BotHandler:    handlerset.Bot,
		WidgetHandler: handlerset.Widget,
		MLHandler:     handlerset.ML,
		DBHandler:     handlerset.DB,
		LegacyHandler: handlerset.Legacy,
	})
}
