package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/data/repos"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type Repos struct {
	Identity     repos.IdentityRepo
	WidgetConfig repos.WidgetConfigRepo
	BotLog       repos.BotLogRepo
	Prediction   repos.PredictionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Identity:     repos.NewIdentityRepo(db, log),
		WidgetConfig: repos.NewWidgetConfigRepo(db, log),
		BotLog:       repos.NewBotLogRepo(db, log),
		Prediction:   repos.NewPredictionRepo(db, log),
	}
}
