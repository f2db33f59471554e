package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// MigrateOnStartup applies the schema unless running in production, where
// the schema is provisioned out of band. Failures are logged and swallowed
// so the service keeps serving routes that do not need the new schema.
func (s *Service) MigrateOnStartup(production bool) {
	if production {
		s.log.Warn("Skipping startup migrations in production environment")
		return
	}
	if err := s.Migrate(); err != nil {
		s.log.Error("Startup migration failed (continuing)", "error", err)
		return
	}
	s.log.Info("Startup migrations applied")
}

func (s *Service) Migrate() error {
	if s.driver == DriverPostgres {
		if err := s.db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			s.log.Warn("uuid-ossp extension unavailable", "error", err)
		}
	}
	return AutoMigrateAll(s.db)
}
