package mlservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/cliq-relay-backend/internal/features"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	opts.BaseURL = srv.URL
	if opts.HTTPClient == nil {
		opts.HTTPClient = srv.Client()
	}
	c, err := New(log, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestPredictSendsVectorAndDecodesReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var in features.Vector
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode req: %v", err)
		}
		if in.CPU != 70 || in.CPULag5 != 70 {
			t.Errorf("unexpected vector %+v", in)
		}
		_, _ = w.Write([]byte(`{"risk_level":"medium","predicted_hours_to_failure":0.12,"anomaly_score":-0.3,"recommended_action":"Monitor closely","current_cpu":70}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	v, _ := features.Build(map[string]float64{features.CPU: 70})
	res, err := c.Predict(context.Background(), v)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.RiskLevel == nil || *res.RiskLevel != "medium" {
		t.Fatalf("risk_level: got %v", res.RiskLevel)
	}
	if res.PredictedHours == nil || *res.PredictedHours != 0.12 {
		t.Fatalf("predicted hours: got %v", res.PredictedHours)
	}
	if res.RecommendedAction == nil || *res.RecommendedAction != "Monitor closely" {
		t.Fatalf("action: got %v", res.RecommendedAction)
	}
	var raw map[string]any
	if err := json.Unmarshal(res.Raw, &raw); err != nil {
		t.Fatalf("raw: %v", err)
	}
	if raw["current_cpu"] != 70.0 {
		t.Fatalf("raw reply should be kept verbatim, got %v", raw)
	}
}

func TestPredictNon2xxIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model missing", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	_, err := c.Predict(context.Background(), features.Vector{CPU: 1})
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected HTTPError 500, got %v", err)
	}
}

func TestRetriesOnlyServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"risk_level":"low"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{MaxRetries: 2})
	if _, err := c.Predict(context.Background(), features.Vector{CPU: 5}); err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls: want=2 got=%d", calls.Load())
	}

	calls.Store(0)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer bad.Close()
	c = newTestClient(t, bad, Options{MaxRetries: 2})
	if _, err := c.Predict(context.Background(), features.Vector{CPU: 5}); err == nil {
		t.Fatalf("expected error on 422")
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, calls=%d", calls.Load())
	}
}

func TestTimeoutBoundsTheCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Timeout: 50 * time.Millisecond})
	start := time.Now()
	if _, err := c.Predict(context.Background(), features.Vector{CPU: 5}); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("call was not bounded by timeout")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"model_missing"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if status != "model_missing" {
		t.Fatalf("Health: want=model_missing got=%q", status)
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer empty.Close()
	c = newTestClient(t, empty, Options{})
	if status, _ := c.Health(context.Background()); status != "ok" {
		t.Fatalf("Health: default want=ok got=%q", status)
	}
}

func TestForwardReturnsBodyVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"anything":[1,2,3]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	raw, err := c.Forward(context.Background(), "/predict", map[string]any{"resource_id": "r1"})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if string(raw) != `{"anything":[1,2,3]}` {
		t.Fatalf("Forward: got %s", raw)
	}
}

func TestForwardRejectsOversizedReply(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body := make([]byte, MaxResponseBytes+16)
		for i := range body {
			body[i] = ' '
		}
		body[0] = '{'
		body[len(body)-1] = '}'
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{MaxRetries: 2})
	raw, err := c.Forward(context.Background(), "/predict", map[string]any{"resource_id": "r1"})
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("Forward: want ErrResponseTooLarge, got raw=%d bytes err=%v", len(raw), err)
	}
	if calls.Load() != 1 {
		t.Fatalf("oversized reply should not be retried, calls=%d", calls.Load())
	}
}

func TestNewDefaults(t *testing.T) {
	c, err := New(logger.Nop(), Options{BaseURL: " http://ml:8000/ "})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.BaseURL() != "http://ml:8000" {
		t.Fatalf("BaseURL: got %q", c.BaseURL())
	}
	if c.timeout != DefaultTimeout {
		t.Fatalf("timeout: want=%v got=%v", DefaultTimeout, c.timeout)
	}
	if _, err := New(nil, Options{}); err == nil {
		t.Fatalf("expected error without logger")
	}
}
