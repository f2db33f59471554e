package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/clients/mlservice"
	"github.com/yungbote/cliq-relay-backend/internal/data/repos"
	"github.com/yungbote/cliq-relay-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/cliq-relay-backend/internal/http/handlers"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/services"
)

type testEnv struct {
	router  *gin.Engine
	mlCalls *atomic.Int32
	mlDown  *atomic.Bool
	lastML  *atomic.Value
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{mlCalls: &atomic.Int32{}, mlDown: &atomic.Bool{}, lastML: &atomic.Value{}}
	ml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.mlDown.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/predict":
			env.mlCalls.Add(1)
			raw, _ := io.ReadAll(r.Body)
			env.lastML.Store(string(raw))
			_, _ = w.Write([]byte(`{"risk_level":"medium","predicted_hours_to_failure":0.1,"anomaly_score":0.2,"recommended_action":"Monitor closely"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ml.Close)

	db := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	metrics := observability.NewMetrics(nil)

	client, err := mlservice.New(log, mlservice.Options{BaseURL: ml.URL, HTTPClient: ml.Client(), Metrics: metrics})
	if err != nil {
		t.Fatalf("mlservice.New: %v", err)
	}
	identities := repos.NewIdentityRepo(db, log)
	preds := repos.NewPredictionRepo(db, log)
	catalog, err := services.NewCatalogService()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	env.router = NewRouter(RouterConfig{
		Log:           log,
		Metrics:       metrics,
		HealthHandler: httpH.NewHealthHandler(),
		BotHandler: httpH.NewBotHandler(log, services.NewBotService(db, log, identities, repos.NewBotLogRepo(db, log), metrics)),
		WidgetHandler: httpH.NewWidgetHandler(log, services.NewWidgetService(log, identities, repos.NewWidgetConfigRepo(db, log))),
		MLHandler: httpH.NewMLHandler(httpH.MLHandlerDeps{
			Log:        log,
			Prediction: services.NewPredictionService(log, client, preds, nil, metrics),
			History:    services.NewHistoryService(log, client, preds),
			Catalog:    catalog,
			Alerts:     services.NewAlertService(log, nil, metrics),
		}),
		DBHandler:     httpH.NewDBHandler(log, services.NewDBProbeService(db, log)),
		LegacyHandler: httpH.NewLegacyHandler(log, services.NewLegacyService(log, client)),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body string) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	out := map[string]any{}
	if ct := rec.Header().Get("Content-Type"); strings.Contains(ct, "json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

const (
	jsonCT = "application/json"
	formCT = "application/x-www-form-urlencoded"
)

func TestPredictFormEncodedRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/ml/predict", formCT, "resource_id=srv-1&metrics%5Bcpu%5D=62&metrics%5Bmemory%5D=40")
	if status != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%v", status, body)
	}
	if body["source"] != services.PredictionSource {
		t.Fatalf("source: got %v", body["source"])
	}
	result, _ := body["result"].(map[string]any)
	if result["risk_level"] != "medium" {
		t.Fatalf("result: got %v", body["result"])
	}

	var sent map[string]float64
	if err := json.Unmarshal([]byte(env.lastML.Load().(string)), &sent); err != nil {
		t.Fatalf("sent vector: %v", err)
	}
	if sent["cpu"] != 62 || sent["memory"] != 40 || sent["cpu_lag_1"] != 62 || sent["errors"] != 0 || len(sent) != 9 {
		t.Fatalf("vector sent to ml service: %v", sent)
	}
}

func TestPredictMissingCPUIs400WithoutUpstreamCall(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/ml/predict", jsonCT, `{"metrics":{"cpu":0,"memory":30}}`)
	if status != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", status)
	}
	if body["error"] != "validation_error" {
		t.Fatalf("error code: got %v", body["error"])
	}
	received, _ := body["received"].(map[string]any)
	if received["memory"] != 30.0 {
		t.Fatalf("received: got %v", body["received"])
	}
	if env.mlCalls.Load() != 0 {
		t.Fatalf("ml service must not be called")
	}
}

func TestPredictUpstreamDownIs500AndNothingStored(t *testing.T) {
	env := newTestEnv(t)
	env.mlDown.Store(true)

	status, body := env.do(t, http.MethodPost, "/api/ml/predict", jsonCT, `{"metrics":{"cpu":50}}`)
	if status != http.StatusInternalServerError || body["error"] != "service_unavailable" {
		t.Fatalf("unexpected %d %v", status, body)
	}

	_, hist := env.do(t, http.MethodGet, "/api/ml/history", "", "")
	if rows, _ := hist["history_rows"].([]any); len(rows) != 0 {
		t.Fatalf("expected empty history, got %v", hist["history_rows"])
	}
}

func TestHistoryTrendNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	for _, cpu := range []string{"10", "20", "30"} {
		if status, body := env.do(t, http.MethodPost, "/api/ml/predict", jsonCT, `{"metrics":{"cpu":`+cpu+`}}`); status != http.StatusOK {
			t.Fatalf("predict %s: %d %v", cpu, status, body)
		}
	}

	status, body := env.do(t, http.MethodGet, "/api/ml/history", "", "")
	if status != http.StatusOK {
		t.Fatalf("status: %d", status)
	}
	trend, _ := body["cpu_trend"].([]any)
	if len(trend) != 3 {
		t.Fatalf("trend: %v", body["cpu_trend"])
	}
	for i, want := range []float64{30, 20, 10} {
		p := trend[i].(map[string]any)
		if p["value"] != want {
			t.Fatalf("trend[%d]: want=%v got=%v", i, want, p["value"])
		}
	}
}

func TestStatusEmptyHistory(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/ml/status", "", "")
	if status != http.StatusOK {
		t.Fatalf("status: %d", status)
	}
	for _, key := range []string{"metrics", "prediction"} {
		m, ok := body[key].(map[string]any)
		if !ok || len(m) != 0 {
			t.Fatalf("%s: want {} got %v", key, body[key])
		}
	}
	if body["node_backend"] != "ok" || body["ml_service"] != "ok" {
		t.Fatalf("status fields: %v", body)
	}

	env.mlDown.Store(true)
	_, body = env.do(t, http.MethodGet, "/api/ml/status", "", "")
	if body["ml_service"] != "unreachable" {
		t.Fatalf("ml_service: want unreachable got %v", body["ml_service"])
	}
}

func TestBotWebhookConversation(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/bot/webhook", jsonCT, `{"message":"hello","user":{"id":"u1"}}`)
	if status != http.StatusOK {
		t.Fatalf("status: %d %v", status, body)
	}
	text, _ := body["text"].(string)
	if !strings.Contains(text, "first message") || !strings.Contains(text, "so far: 1.") {
		t.Fatalf("first reply: %q", text)
	}

	_, body = env.do(t, http.MethodPost, "/api/bot/webhook", jsonCT, `{"message":"world","user":{"id":"u1"}}`)
	text, _ = body["text"].(string)
	if !strings.Contains(text, `"hello"`) || !strings.Contains(text, "so far: 2.") {
		t.Fatalf("second reply: %q", text)
	}

	status, body = env.do(t, http.MethodPost, "/api/bot/webhook", jsonCT, `{"user":{"id":"u1"}}`)
	if status != http.StatusBadRequest || body["error"] != "validation_error" {
		t.Fatalf("invalid payload: %d %v", status, body)
	}
	status, _ = env.do(t, http.MethodPost, "/api/bot/webhook", jsonCT, `{"message":`)
	if status != http.StatusBadRequest {
		t.Fatalf("malformed json: want 400 got %d", status)
	}
}

func TestWidgetConfigFlow(t *testing.T) {
	env := newTestEnv(t)

	if status, _ := env.do(t, http.MethodGet, "/api/widget/config", "", ""); status != http.StatusBadRequest {
		t.Fatalf("missing user_id: want 400 got %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/api/widget/config?user_id=w1", "", ""); status != http.StatusNotFound {
		t.Fatalf("unknown user: want 404 got %d", status)
	}

	env.do(t, http.MethodPost, "/api/bot/webhook", jsonCT, `{"message":"hi","user":{"id":"w1"}}`)

	status, body := env.do(t, http.MethodGet, "/api/widget/config?user_id=w1", "", "")
	if status != http.StatusOK || body["ok"] != true {
		t.Fatalf("get: %d %v", status, body)
	}
	if cfg, _ := body["config"].(map[string]any); len(cfg) != 0 {
		t.Fatalf("default config: %v", body["config"])
	}

	for _, theme := range []string{"dark", "light"} {
		status, body = env.do(t, http.MethodPost, "/api/widget/config", jsonCT, `{"user_id":"w1","config":{"theme":"`+theme+`"}}`)
		if status != http.StatusOK || body["ok"] != true {
			t.Fatalf("save %s: %d %v", theme, status, body)
		}
	}
	_, body = env.do(t, http.MethodGet, "/api/widget/config?user_id=w1", "", "")
	cfg, _ := body["config"].(map[string]any)
	if cfg["theme"] != "light" {
		t.Fatalf("theme: want light got %v", body["config"])
	}

	status, _ = env.do(t, http.MethodPost, "/api/widget/config", formCT, "user_id=w1&config=%7B%22theme%22%3A%22blue%22%7D")
	if status != http.StatusOK {
		t.Fatalf("form save: %d", status)
	}
	_, body = env.do(t, http.MethodGet, "/api/widget/config?user_id=w1", "", "")
	cfg, _ = body["config"].(map[string]any)
	if cfg["theme"] != "blue" {
		t.Fatalf("form theme: got %v", body["config"])
	}
}

func TestFormBodiesWithNestedKeys(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/bot/webhook", formCT, "message=hello&user%5Bid%5D=f1&user%5Bname%5D=Ann")
	if status != http.StatusOK {
		t.Fatalf("form webhook: %d %v", status, body)
	}
	if text, _ := body["text"].(string); !strings.Contains(text, "Hello Ann!") || !strings.Contains(text, "so far: 1.") {
		t.Fatalf("form webhook reply: %q", text)
	}

	status, body = env.do(t, http.MethodPost, "/api/widget/config", formCT, "user_id=f1&config%5Btheme%5D=dark&config%5Blayout%5D%5Bcols%5D=2")
	if status != http.StatusOK {
		t.Fatalf("form save: %d %v", status, body)
	}
	_, body = env.do(t, http.MethodGet, "/api/widget/config?user_id=f1", "", "")
	cfg, _ := body["config"].(map[string]any)
	layout, _ := cfg["layout"].(map[string]any)
	if cfg["theme"] != "dark" || layout["cols"] != "2" {
		t.Fatalf("folded config: got %v", body["config"])
	}
	user, _ := body["user"].(map[string]any)
	if user["cliq_user_id"] != "f1" {
		t.Fatalf("user from form webhook: got %v", body["user"])
	}
}

func TestStaticAndProbeRoutes(t *testing.T) {
	env := newTestEnv(t)

	if status, body := env.do(t, http.MethodGet, "/", "", ""); status != http.StatusOK || body["status"] != "Backend running successfully" {
		t.Fatalf("root: %d %v", status, body)
	}
	status, body := env.do(t, http.MethodGet, "/api/ml/metrics", "", "")
	if list, _ := body["metrics"].([]any); status != http.StatusOK || len(list) != 6 {
		t.Fatalf("metrics: %d %v", status, body)
	}
	status, body = env.do(t, http.MethodPost, "/api/ml/alerts", jsonCT, `{"level":"high"}`)
	if status != http.StatusOK || body["message"] != "Alert processed" {
		t.Fatalf("alerts: %d %v", status, body)
	}
	status, body = env.do(t, http.MethodGet, "/api/db/test", "", "")
	if status != http.StatusOK || body["status"] != "ok" || body["time"] == "" {
		t.Fatalf("db test: %d %v", status, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("cliq_relay_http_requests_total")) {
		t.Fatalf("/metrics: %d", rec.Code)
	}
}

func TestLegacyPredictPassthrough(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/predict", jsonCT, `{"resource_id":"card","metrics":{"cpu":"71","memory":"12"}}`)
	if status != http.StatusOK || body["risk_level"] != "medium" {
		t.Fatalf("legacy: %d %v", status, body)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(env.lastML.Load().(string)), &sent); err != nil {
		t.Fatalf("sent: %v", err)
	}
	m, _ := sent["metrics"].(map[string]any)
	if sent["resource_id"] != "card" || m["cpu"] != 71.0 || m["disk"] != nil {
		t.Fatalf("legacy payload: %v", sent)
	}

	env.mlDown.Store(true)
	status, body = env.do(t, http.MethodPost, "/predict", jsonCT, `{"metrics":{"cpu":1}}`)
	if status != http.StatusInternalServerError || body["error"] != "ML service unreachable" {
		t.Fatalf("legacy failure: %d %v", status, body)
	}
}
