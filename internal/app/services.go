package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
	"github.com/yungbote/cliq-relay-backend/internal/services"
)

type Services struct {
	Prediction services.PredictionService
	History    services.HistoryService
	Bot        services.BotService
	Widget     services.WidgetService
	Catalog    services.CatalogService
	DBProbe    services.DBProbeService
	Legacy     services.LegacyService
	Alerts     services.AlertService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	catalog, err := services.NewCatalogService()
	if err != nil {
		return Services{}, fmt.Errorf("init metric catalog: %w", err)
	}

	return Services{
		Prediction: services.NewPredictionService(log, clients.ML, reposet.Prediction, clients.Bus, metrics),
		History:    services.NewHistoryService(log, clients.ML, reposet.Prediction),
		Bot:        services.NewBotService(db, log, reposet.Identity, reposet.BotLog, metrics),
		Widget:     services.NewWidgetService(log, reposet.Identity, reposet.WidgetConfig),
		Catalog:    catalog,
		DBProbe:    services.NewDBProbeService(db, log),
		Legacy:     services.NewLegacyService(log, clients.ML),
		Alerts:     services.NewAlertService(log, clients.Bus, metrics),
	}, nil
}
