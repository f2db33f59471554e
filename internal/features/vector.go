package features

import (
	"math"
	"sort"

	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
)

// Metric names accepted from callers.
const (
	CPU      = "cpu"
	Memory   = "memory"
	Disk     = "disk"
	Latency  = "latency"
	Requests = "requests"
	Errors   = "errors"
	CPULag1  = "cpu_lag_1"
	CPULag5  = "cpu_lag_5"
	CPULag15 = "cpu_lag_15"
)

// Vector is the fixed nine-field record sent to the prediction service and
// stored verbatim with each prediction.
type Vector struct {
	CPU      float64 `json:"cpu"`
	Memory   float64 `json:"memory"`
	Disk     float64 `json:"disk"`
	Latency  float64 `json:"latency"`
	Requests float64 `json:"requests"`
	Errors   float64 `json:"errors"`
	CPULag1  float64 `json:"cpu_lag_1"`
	CPULag5  float64 `json:"cpu_lag_5"`
	CPULag15 float64 `json:"cpu_lag_15"`
}

// Build validates metrics and fills every optional field. cpu is mandatory:
// a missing, zero or non-numeric reading is rejected. Optional readings that
// are absent or non-finite fall back to 0, lags fall back to cpu.
func Build(metrics map[string]float64) (Vector, error) {
	cpu, ok := present(metrics, CPU)
	if !ok {
		return Vector{}, apierr.Validation("CPU is required for prediction").
			WithDetail("received", Received(metrics))
	}

	v := Vector{
		CPU:      cpu,
		Memory:   orDefault(metrics, Memory, 0),
		Disk:     orDefault(metrics, Disk, 0),
		Latency:  orDefault(metrics, Latency, 0),
		Requests: orDefault(metrics, Requests, 0),
		Errors:   orDefault(metrics, Errors, 0),
		CPULag1:  orDefault(metrics, CPULag1, cpu),
		CPULag5:  orDefault(metrics, CPULag5, cpu),
		CPULag15: orDefault(metrics, CPULag15, cpu),
	}
	return v, nil
}

// present treats zero and non-finite values as missing.
func present(metrics map[string]float64, key string) (float64, bool) {
	v, ok := metrics[key]
	if !ok || v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func orDefault(metrics map[string]float64, key string, def float64) float64 {
	if v, ok := present(metrics, key); ok {
		return v
	}
	return def
}

// Received renders metrics for an error body. NaN and Inf have no JSON
// form, so they are reported as null.
func Received(metrics map[string]float64) map[string]any {
	out := make(map[string]any, len(metrics))
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := metrics[k]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}
