package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/data/repos/bot"
	"github.com/yungbote/cliq-relay-backend/internal/data/repos/ml"
	"github.com/yungbote/cliq-relay-backend/internal/data/repos/user"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type IdentityRepo = user.IdentityRepo
type WidgetConfigRepo = user.WidgetConfigRepo
type BotLogRepo = bot.BotLogRepo
type PredictionRepo = ml.PredictionRepo

func NewIdentityRepo(db *gorm.DB, baseLog *logger.Logger) IdentityRepo {
	return user.NewIdentityRepo(db, baseLog)
}
func NewWidgetConfigRepo(db *gorm.DB, baseLog *logger.Logger) WidgetConfigRepo {
	return user.NewWidgetConfigRepo(db, baseLog)
}
func NewBotLogRepo(db *gorm.DB, baseLog *logger.Logger) BotLogRepo {
	return bot.NewBotLogRepo(db, baseLog)
}
func NewPredictionRepo(db *gorm.DB, baseLog *logger.Logger) PredictionRepo {
	return ml.NewPredictionRepo(db, baseLog)
}
