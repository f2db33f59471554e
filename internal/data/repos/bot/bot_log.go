package bot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/domain"
	"github.com/yungbote/cliq-relay-backend/internal/platform/dbctx"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type BotLogRepo interface {
	Append(dbc dbctx.Context, row *domain.BotLog) error
	// PriorTo returns the entry inserted immediately before anchor for the
	// same user, or nil when anchor is the first.
	PriorTo(dbc dbctx.Context, anchor *domain.BotLog) (*domain.BotLog, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type botLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBotLogRepo(db *gorm.DB, baseLog *logger.Logger) BotLogRepo {
	return &botLogRepo{db: db, log: baseLog.With("repo", "BotLogRepo")}
}

func (r *botLogRepo) Append(dbc dbctx.Context, row *domain.BotLog) error {
	if row == nil || row.UserID == uuid.Nil {
		return fmt.Errorf("bot log requires user id")
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	// postgres keeps microseconds; trimming here keeps the in-memory row
	// comparable with what was stored.
	row.CreatedAt = row.CreatedAt.UTC().Truncate(time.Microsecond)
	return dbc.DB(r.db).Create(row).Error
}

func (r *botLogRepo) PriorTo(dbc dbctx.Context, anchor *domain.BotLog) (*domain.BotLog, error) {
	if anchor == nil {
		return nil, nil
	}
	var rows []*domain.BotLog
	if err := dbc.DB(r.db).
		Where("user_id = ?", anchor.UserID).
		Where("id < ?", anchor.ID).
		Order("id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *botLogRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&domain.BotLog{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
