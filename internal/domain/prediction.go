package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Prediction records one round trip to the ML service. Metrics holds the
// exact feature vector that was sent.
type Prediction struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ResourceID *string        `gorm:"column:resource_id" json:"resource_id"`
	Metrics    datatypes.JSON `gorm:"type:jsonb;not null" json:"metrics"`
	Severity   string         `gorm:"not null" json:"severity"`
	Score      *float64       `json:"score"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Prediction) TableName() string { return "predictions" }

// PredictionDetails is the auxiliary substructure stored in Details.
type PredictionDetails struct {
	AnomalyScore *float64 `json:"anomaly_score"`
	Action       *string  `json:"action"`
}

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&Identity{},
		&BotLog{},
		&WidgetConfig{},
		&Prediction{},
	}
}
