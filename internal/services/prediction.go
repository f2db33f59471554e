package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/cliq-relay-backend/internal/clients/mlservice"
	"github.com/yungbote/cliq-relay-backend/internal/clients/redis"
	"github.com/yungbote/cliq-relay-backend/internal/data/repos"
	"github.com/yungbote/cliq-relay-backend/internal/domain"
	"github.com/yungbote/cliq-relay-backend/internal/features"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/dbctx"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

// PredictionSource labels results that came back from the ML service.
const PredictionSource = "external-ml-service"

const defaultSeverity = "unknown"

// MLClient is the subset of the ML service client the services depend on.
type MLClient interface {
	Predict(ctx context.Context, v features.Vector) (*mlservice.PredictResult, error)
	Health(ctx context.Context) (string, error)
	Forward(ctx context.Context, path string, body any) (json.RawMessage, error)
}

type PredictionOutcome struct {
	Source string          `json:"source"`
	Result json.RawMessage `json:"result"`

	Record *domain.Prediction `json:"-"`
}

type PredictionService interface {
	// PredictMetrics builds the feature vector from raw metrics and runs
	// Predict. Invalid metrics fail before the ML service is called.
	PredictMetrics(ctx context.Context, resourceID *string, metrics map[string]float64) (*PredictionOutcome, error)
	Predict(ctx context.Context, resourceID *string, v features.Vector) (*PredictionOutcome, error)
}

type predictionService struct {
	log     *logger.Logger
	ml      MLClient
	preds   repos.PredictionRepo
	events  eventPublisher
	metrics *observability.Metrics
}

func NewPredictionService(
	log *logger.Logger,
	ml MLClient,
	preds repos.PredictionRepo,
	bus redis.EventBus,
	metrics *observability.Metrics,
) PredictionService {
	serviceLog := log.With("service", "PredictionService")
	return &predictionService{
		log:     serviceLog,
		ml:      ml,
		preds:   preds,
		events:  eventPublisher{bus: bus, log: serviceLog, metrics: metrics},
		metrics: metrics,
	}
}

func (s *predictionService) PredictMetrics(ctx context.Context, resourceID *string, metrics map[string]float64) (*PredictionOutcome, error) {
	v, err := features.Build(metrics)
	if err != nil {
		s.metrics.ObservePrediction(observability.OutcomeInvalid)
		return nil, err
	}
	return s.Predict(ctx, resourceID, v)
}

// Predict runs to completion once started: a caller disconnect does not
// abort the upstream call or the audit insert. The client's own timeout
// still bounds the round trip.
func (s *predictionService) Predict(ctx context.Context, resourceID *string, v features.Vector) (*PredictionOutcome, error) {
	ctx = context.WithoutCancel(ctx)
	res, err := s.ml.Predict(ctx, v)
	if err != nil {
		s.metrics.ObservePrediction(observability.OutcomeUnavailable)
		s.log.Warn("ml service call failed", "error", err)
		return nil, apierr.Unavailable(err)
	}

	row, err := predictionRecord(resourceID, v, res)
	if err != nil {
		s.metrics.ObservePrediction(observability.OutcomeError)
		return nil, err
	}
	if err := s.preds.Create(dbctx.From(ctx), row); err != nil {
		s.metrics.ObservePrediction(observability.OutcomePersistence)
		s.log.Error("prediction not persisted",
			"error", err,
			"severity", row.Severity,
			"result", string(res.Raw),
		)
		return nil, apierr.Persistence("insert prediction", err)
	}

	s.metrics.ObservePrediction(observability.OutcomeOK)
	s.events.publish(ctx, TopicPredictionCreated, map[string]any{
		"id":          row.ID,
		"resource_id": row.ResourceID,
		"severity":    row.Severity,
		"score":       row.Score,
	})

	return &PredictionOutcome{
		Source: PredictionSource,
		Result: res.Raw,
		Record: row,
	}, nil
}

func predictionRecord(resourceID *string, v features.Vector, res *mlservice.PredictResult) (*domain.Prediction, error) {
	if res == nil {
		return nil, errors.New("empty prediction result")
	}
	metricsJSON, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	detailsJSON, err := json.Marshal(domain.PredictionDetails{
		AnomalyScore: res.AnomalyScore,
		Action:       res.RecommendedAction,
	})
	if err != nil {
		return nil, err
	}
	severity := defaultSeverity
	if res.RiskLevel != nil && *res.RiskLevel != "" {
		severity = *res.RiskLevel
	}
	return &domain.Prediction{
		ResourceID: resourceID,
		Metrics:    datatypes.JSON(metricsJSON),
		Severity:   severity,
		Score:      res.PredictedHours,
		Details:    datatypes.JSON(detailsJSON),
		CreatedAt:  time.Now().UTC(),
	}, nil
}
