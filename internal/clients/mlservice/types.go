package mlservice

import "encoding/json"

// PredictResult is the upstream reply. Raw is returned to callers as-is,
// the typed fields are what gets persisted.
type PredictResult struct {
	Raw json.RawMessage `json:"-"`

	RiskLevel         *string  `json:"risk_level"`
	PredictedHours    *float64 `json:"predicted_hours_to_failure"`
	AnomalyScore      *float64 `json:"anomaly_score"`
	RecommendedAction *string  `json:"recommended_action"`
}

type healthResponse struct {
	Status string `json:"status"`
}
