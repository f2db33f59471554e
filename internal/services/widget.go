package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/cliq-relay-backend/internal/data/repos"
	"github.com/yungbote/cliq-relay-backend/internal/domain"
	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/dbctx"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type WidgetUser struct {
	ID         uuid.UUID `json:"id"`
	CliqUserID string    `json:"cliq_user_id"`
}

type WidgetView struct {
	User   WidgetUser      `json:"user"`
	Config json.RawMessage `json:"config"`
}

type WidgetService interface {
	Get(ctx context.Context, cliqUserID string) (*WidgetView, error)
	Save(ctx context.Context, cliqUserID string, config json.RawMessage) (*domain.WidgetConfig, error)
}

type widgetService struct {
	log        *logger.Logger
	identities repos.IdentityRepo
	configs    repos.WidgetConfigRepo
}

func NewWidgetService(log *logger.Logger, identities repos.IdentityRepo, configs repos.WidgetConfigRepo) WidgetService {
	return &widgetService{
		log:        log.With("service", "WidgetService"),
		identities: identities,
		configs:    configs,
	}
}

func (s *widgetService) Get(ctx context.Context, cliqUserID string) (*WidgetView, error) {
	cliqUserID = strings.TrimSpace(cliqUserID)
	if cliqUserID == "" {
		return nil, apierr.Validation("user_id required")
	}
	ident, err := s.resolve(ctx, cliqUserID)
	if err != nil {
		return nil, err
	}
	row, err := s.configs.GetByUserID(dbctx.From(ctx), ident.ID)
	if err != nil {
		return nil, apierr.Persistence("read widget config", err)
	}
	view := &WidgetView{
		User:   WidgetUser{ID: ident.ID, CliqUserID: ident.CliqUserID},
		Config: json.RawMessage(`{}`),
	}
	if row != nil && len(row.ConfigJSON) > 0 {
		view.Config = json.RawMessage(row.ConfigJSON)
	}
	return view, nil
}

// Save replaces the identity's config. Concurrent saves resolve in the
// database, the last write wins.
func (s *widgetService) Save(ctx context.Context, cliqUserID string, config json.RawMessage) (*domain.WidgetConfig, error) {
	cliqUserID = strings.TrimSpace(cliqUserID)
	trimmed := bytes.TrimSpace(config)
	if cliqUserID == "" || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, apierr.Validation("user_id & config required")
	}
	if !json.Valid(trimmed) {
		return nil, apierr.Validation("config must be valid JSON")
	}
	ctx = context.WithoutCancel(ctx)
	ident, err := s.resolve(ctx, cliqUserID)
	if err != nil {
		return nil, err
	}
	row := &domain.WidgetConfig{
		UserID:     ident.ID,
		ConfigJSON: datatypes.JSON(trimmed),
	}
	if err := s.configs.Upsert(dbctx.From(ctx), row); err != nil {
		return nil, apierr.Persistence("save widget config", err)
	}
	return row, nil
}

func (s *widgetService) resolve(ctx context.Context, cliqUserID string) (*domain.Identity, error) {
	ident, err := s.identities.GetByCliqUserID(dbctx.From(ctx), cliqUserID)
	if err != nil {
		return nil, apierr.Persistence("read identity", err)
	}
	if ident == nil {
		return nil, apierr.NotFound("User not found")
	}
	return ident, nil
}
