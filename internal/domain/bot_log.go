package domain

import (
	"time"

	"github.com/google/uuid"
)

// BotLog is an append-only message log entry. The autoincrement id is
// assigned by the database at insert and defines conversation order;
// created_at is informational.
type BotLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;index:idx_bot_logs_user_order,priority:2" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_bot_logs_user_order,priority:1" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (BotLog) TableName() string { return "bot_logs" }
