package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type DBProbeService interface {
	// Now asks the database for its current timestamp.
	Now(ctx context.Context) (string, error)
}

type dbProbeService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDBProbeService(db *gorm.DB, log *logger.Logger) DBProbeService {
	return &dbProbeService{db: db, log: log.With("service", "DBProbeService")}
}

func (s *dbProbeService) Now(ctx context.Context) (string, error) {
	var now string
	if err := s.db.WithContext(ctx).Raw("SELECT CURRENT_TIMESTAMP").Row().Scan(&now); err != nil {
		s.log.Error("database probe failed", "error", err)
		return "", apierr.Persistence("database probe", err)
	}
	return now, nil
}
