package ml

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/domain"
	"github.com/yungbote/cliq-relay-backend/internal/platform/dbctx"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type PredictionRepo interface {
	Create(dbc dbctx.Context, row *domain.Prediction) error
	// ListRecent returns up to limit rows, newest first.
	ListRecent(dbc dbctx.Context, limit int) ([]*domain.Prediction, error)
	Latest(dbc dbctx.Context) (*domain.Prediction, error)
}

type predictionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPredictionRepo(db *gorm.DB, baseLog *logger.Logger) PredictionRepo {
	return &predictionRepo{db: db, log: baseLog.With("repo", "PredictionRepo")}
}

func (r *predictionRepo) Create(dbc dbctx.Context, row *domain.Prediction) error {
	if row == nil {
		return fmt.Errorf("prediction required")
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	row.CreatedAt = row.CreatedAt.UTC().Truncate(time.Microsecond)
	return dbc.DB(r.db).Create(row).Error
}

func (r *predictionRepo) ListRecent(dbc dbctx.Context, limit int) ([]*domain.Prediction, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []*domain.Prediction
	if err := dbc.DB(r.db).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *predictionRepo) Latest(dbc dbctx.Context) (*domain.Prediction, error) {
	rows, err := r.ListRecent(dbc, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
