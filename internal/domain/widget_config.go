package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WidgetConfig holds the latest widget settings blob for an identity.
// There is exactly one row per user_id.
type WidgetConfig struct {
	UserID     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	ConfigJSON datatypes.JSON `gorm:"column:config_json;type:jsonb;not null" json:"config_json"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (WidgetConfig) TableName() string { return "widget_config" }
