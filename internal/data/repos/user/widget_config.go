package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/cliq-relay-backend/internal/domain"
	"github.com/yungbote/cliq-relay-backend/internal/platform/dbctx"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type WidgetConfigRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*domain.WidgetConfig, error)
	Upsert(dbc dbctx.Context, row *domain.WidgetConfig) error
}

type widgetConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWidgetConfigRepo(db *gorm.DB, baseLog *logger.Logger) WidgetConfigRepo {
	return &widgetConfigRepo{db: db, log: baseLog.With("repo", "WidgetConfigRepo")}
}

func (r *widgetConfigRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*domain.WidgetConfig, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.WidgetConfig
	if err := dbc.DB(r.db).Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Upsert relies on ON CONFLICT (user_id) so concurrent writers for the same
// identity resolve to last-write-wins without application locks.
func (r *widgetConfigRepo) Upsert(dbc dbctx.Context, row *domain.WidgetConfig) error {
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	row.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"config_json",
				"updated_at",
			}),
		}).
		Create(row).Error
}
