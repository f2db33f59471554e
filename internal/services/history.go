package services

import (
	"context"
	"encoding/json"
	"iter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/cliq-relay-backend/internal/data/repos"
	"github.com/yungbote/cliq-relay-backend/internal/domain"
	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/dbctx"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

const (
	HistoryLimit = 50

	StatusOK          = "ok"
	StatusUnreachable = "unreachable"
)

type HistoryRow struct {
	Timestamp      time.Time `json:"timestamp"`
	CPU            float64   `json:"cpu"`
	Memory         float64   `json:"memory"`
	RiskLevel      string    `json:"risk_level"`
	PredictedHours *float64  `json:"predicted_hours_to_failure"`
}

type TrendPoint struct {
	Label time.Time `json:"label"`
	Value float64   `json:"value"`
}

// History holds the newest predictions first.
type History struct {
	Rows []HistoryRow
}

// CPUTrend yields (timestamp, cpu) pairs in row order. Each range over the
// sequence walks the rows again.
func (h *History) CPUTrend() iter.Seq[TrendPoint] {
	return func(yield func(TrendPoint) bool) {
		if h == nil {
			return
		}
		for _, r := range h.Rows {
			if !yield(TrendPoint{Label: r.Timestamp, Value: r.CPU}) {
				return
			}
		}
	}
}

type Status struct {
	NodeBackend string         `json:"node_backend"`
	MLService   string         `json:"ml_service"`
	Metrics     map[string]any `json:"metrics"`
	Prediction  map[string]any `json:"prediction"`
}

type HistoryService interface {
	History(ctx context.Context) (*History, error)
	Status(ctx context.Context) (*Status, error)
}

type historyService struct {
	log   *logger.Logger
	ml    MLClient
	preds repos.PredictionRepo
}

func NewHistoryService(log *logger.Logger, ml MLClient, preds repos.PredictionRepo) HistoryService {
	return &historyService{
		log:   log.With("service", "HistoryService"),
		ml:    ml,
		preds: preds,
	}
}

func (s *historyService) History(ctx context.Context) (*History, error) {
	rows, err := s.preds.ListRecent(dbctx.From(ctx), HistoryLimit)
	if err != nil {
		return nil, apierr.Persistence("list predictions", err)
	}
	out := &History{Rows: make([]HistoryRow, 0, len(rows))}
	for _, p := range rows {
		m := decodeObject(s.log, p.Metrics)
		out.Rows = append(out.Rows, HistoryRow{
			Timestamp:      p.CreatedAt,
			CPU:            numberOrZero(m["cpu"]),
			Memory:         numberOrZero(m["memory"]),
			RiskLevel:      severityOrUnknown(p.Severity),
			PredictedHours: p.Score,
		})
	}
	return out, nil
}

// Status probes the ML service and reads the latest prediction
// concurrently. Only the storage read can fail the call.
func (s *historyService) Status(ctx context.Context) (*Status, error) {
	var (
		mlStatus string
		latest   *domain.Prediction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mlStatus = s.probe(gctx)
		return nil
	})
	g.Go(func() error {
		row, err := s.preds.Latest(dbctx.From(gctx))
		if err != nil {
			return apierr.Persistence("latest prediction", err)
		}
		latest = row
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Status{
		NodeBackend: StatusOK,
		MLService:   mlStatus,
		Metrics:     map[string]any{},
		Prediction:  map[string]any{},
	}
	if latest != nil {
		out.Metrics = decodeObject(s.log, latest.Metrics)
		var details domain.PredictionDetails
		if len(latest.Details) > 0 {
			if err := json.Unmarshal(latest.Details, &details); err != nil {
				s.log.Warn("bad prediction details", "id", latest.ID, "error", err)
			}
		}
		out.Prediction = map[string]any{
			"risk_level":                 latest.Severity,
			"predicted_hours_to_failure": latest.Score,
			"anomaly_score":              details.AnomalyScore,
			"recommended_action":         details.Action,
		}
	}
	return out, nil
}

func (s *historyService) probe(ctx context.Context) string {
	if s.ml == nil {
		return StatusUnreachable
	}
	status, err := s.ml.Health(ctx)
	if err != nil {
		s.log.Debug("ml health probe failed", "error", err)
		return StatusUnreachable
	}
	return status
}

func decodeObject(log *logger.Logger, raw []byte) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		log.Warn("stored json is not an object", "error", err)
		return map[string]any{}
	}
	return out
}

func numberOrZero(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}

func severityOrUnknown(s string) string {
	if s == "" {
		return defaultSeverity
	}
	return s
}
