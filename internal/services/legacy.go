package services

import (
	"context"
	"encoding/json"
	"math"

	"github.com/yungbote/cliq-relay-backend/internal/features"
	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

const legacyPredictPath = "/predict"

type LegacyPredictRequest struct {
	ResourceID any
	Metrics    map[string]float64
}

type legacyMetrics struct {
	CPU    *float64 `json:"cpu"`
	Memory *float64 `json:"memory"`
	Disk   *float64 `json:"disk"`
}

type legacyPayload struct {
	ResourceID any           `json:"resource_id"`
	Metrics    legacyMetrics `json:"metrics"`
}

// LegacyService proxies the older small-card prediction call straight to
// the ML service. Nothing is validated or stored.
type LegacyService interface {
	Forward(ctx context.Context, in LegacyPredictRequest) (json.RawMessage, error)
}

type legacyService struct {
	log *logger.Logger
	ml  MLClient
}

func NewLegacyService(log *logger.Logger, ml MLClient) LegacyService {
	return &legacyService{log: log.With("service", "LegacyService"), ml: ml}
}

func (s *legacyService) Forward(ctx context.Context, in LegacyPredictRequest) (json.RawMessage, error) {
	payload := legacyPayload{
		ResourceID: in.ResourceID,
		Metrics: legacyMetrics{
			CPU:    finiteOrNil(in.Metrics, features.CPU),
			Memory: finiteOrNil(in.Metrics, features.Memory),
			Disk:   finiteOrNil(in.Metrics, features.Disk),
		},
	}
	s.log.Debug("legacy predict payload", "payload", payload)
	raw, err := s.ml.Forward(ctx, legacyPredictPath, payload)
	if err != nil {
		s.log.Warn("legacy predict failed", "error", err)
		return nil, apierr.Unavailable(err)
	}
	return raw, nil
}

// finiteOrNil mirrors how a non-numeric reading has no JSON number form.
func finiteOrNil(m map[string]float64, key string) *float64 {
	v, ok := m[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
