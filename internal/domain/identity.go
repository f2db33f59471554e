package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a chat-platform user, created on first contact and keyed by
// the external Cliq user id.
type Identity struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CliqUserID string    `gorm:"column:cliq_user_id;not null;uniqueIndex" json:"cliq_user_id"`
	Name       *string   `gorm:"column:name" json:"name"`
	Email      *string   `gorm:"column:email" json:"email"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Identity) TableName() string { return "users" }

// DisplayName falls back to a generic greeting target.
func (i *Identity) DisplayName() string {
	if i == nil || i.Name == nil || *i.Name == "" {
		return "there"
	}
	return *i.Name
}
