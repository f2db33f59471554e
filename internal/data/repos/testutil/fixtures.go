package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/domain"
)

func SeedIdentity(tb testing.TB, ctx context.Context, tx *gorm.DB, cliqUserID string, name *string) *domain.Identity {
	tb.Helper()
	u := &domain.Identity{
		ID:         uuid.New(),
		CliqUserID: cliqUserID,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed identity: %v", err)
	}
	return u
}

func SeedPrediction(tb testing.TB, ctx context.Context, tx *gorm.DB, metrics map[string]any, severity string, createdAt time.Time) *domain.Prediction {
	tb.Helper()
	raw, err := json.Marshal(metrics)
	if err != nil {
		tb.Fatalf("marshal metrics: %v", err)
	}
	p := &domain.Prediction{
		Metrics:   datatypes.JSON(raw),
		Severity:  severity,
		CreatedAt: createdAt.UTC(),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed prediction: %v", err)
	}
	return p
}

func PtrString(v string) *string { return &v }

func PtrFloat(v float64) *float64 { return &v }
