package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/data/dberr"
	"github.com/yungbote/cliq-relay-backend/internal/domain"
	"github.com/yungbote/cliq-relay-backend/internal/platform/dbctx"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type IdentityRepo interface {
	GetByCliqUserID(dbc dbctx.Context, cliqUserID string) (*domain.Identity, error)
	Create(dbc dbctx.Context, row *domain.Identity) error
	FindOrCreate(dbc dbctx.Context, cliqUserID string, name, email *string) (*domain.Identity, bool, error)
}

type identityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIdentityRepo(db *gorm.DB, baseLog *logger.Logger) IdentityRepo {
	return &identityRepo{db: db, log: baseLog.With("repo", "IdentityRepo")}
}

// GetByCliqUserID returns nil, nil when no identity exists.
func (r *identityRepo) GetByCliqUserID(dbc dbctx.Context, cliqUserID string) (*domain.Identity, error) {
	if cliqUserID == "" {
		return nil, nil
	}
	var rows []*domain.Identity
	if err := dbc.DB(r.db).
		Where("cliq_user_id = ?", cliqUserID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *identityRepo) Create(dbc dbctx.Context, row *domain.Identity) error {
	if row == nil {
		return fmt.Errorf("identity required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	row.CreatedAt = row.CreatedAt.UTC().Truncate(time.Microsecond)
	return dbc.DB(r.db).Create(row).Error
}

// FindOrCreate returns the identity for cliqUserID, creating it on first
// contact. A concurrent first contact that loses the unique-key race reads
// the winner's row instead of failing.
func (r *identityRepo) FindOrCreate(dbc dbctx.Context, cliqUserID string, name, email *string) (*domain.Identity, bool, error) {
	existing, err := r.GetByCliqUserID(dbc, cliqUserID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	row := &domain.Identity{CliqUserID: cliqUserID, Name: name, Email: email}
	if err := r.Create(dbc, row); err != nil {
		if !dberr.IsUniqueViolation(err) {
			return nil, false, err
		}
		r.log.Debug("identity created concurrently, re-reading", "cliq_user_id", cliqUserID)
		winner, getErr := r.GetByCliqUserID(dbc, cliqUserID)
		if getErr != nil {
			return nil, false, getErr
		}
		if winner == nil {
			return nil, false, err
		}
		return winner, false, nil
	}
	return row, true, nil
}
