package normalization

import (
	"math"
	"testing"
)

func TestNormalizeFormBracketMetrics(t *testing.T) {
	raw := []byte("resource_id=vm-7&metrics%5Bcpu%5D=55&metrics[memory]=40.5&metrics[disk]=abc&note=hi")
	body, err := Normalize("application/x-www-form-urlencoded; charset=utf-8", raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !body.Form {
		t.Fatalf("expected form detection")
	}
	if got := body.Metrics["cpu"]; got != 55 {
		t.Fatalf("cpu: want=55 got=%v", got)
	}
	if got := body.Metrics["memory"]; got != 40.5 {
		t.Fatalf("memory: want=40.5 got=%v", got)
	}
	if got := body.Metrics["disk"]; !math.IsNaN(got) {
		t.Fatalf("disk: want NaN got=%v", got)
	}
	for key := range body.Fields {
		if _, ok := bracketMetric(key); ok {
			t.Fatalf("bracket key %q left at top level", key)
		}
	}
	if id, ok := body.String("resource_id"); !ok || id != "vm-7" {
		t.Fatalf("resource_id: got %q ok=%v", id, ok)
	}
	if note, _ := body.String("note"); note != "hi" {
		t.Fatalf("note: got %q", note)
	}
}

func TestNormalizeJSONBracketAndNestedMetrics(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want map[string]float64
	}{
		{"bracket keys", `{"metrics[cpu]":"71","metrics[latency]":12}`, map[string]float64{"cpu": 71, "latency": 12}},
		{"nested object", `{"metrics":{"cpu":80,"memory":"33","errors":null}}`, map[string]float64{"cpu": 80, "memory": 33}},
		{"blank string", `{"metrics":{"cpu":" "}}`, map[string]float64{"cpu": 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := Normalize("application/json", []byte(tc.raw))
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if len(body.Metrics) != len(tc.want) {
				t.Fatalf("metrics: want=%v got=%v", tc.want, body.Metrics)
			}
			for k, v := range tc.want {
				if body.Metrics[k] != v {
					t.Fatalf("metric %s: want=%v got=%v", k, v, body.Metrics[k])
				}
			}
			if _, ok := body.Fields["metrics"]; ok {
				t.Fatalf("nested metrics object should be lifted out of Fields")
			}
		})
	}
}

func TestNormalizePassesThroughOtherKeys(t *testing.T) {
	body, err := Normalize("application/json", []byte(`{"message":"hello","user":{"id":"u1"},"resource_id":42}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if body.HasMetrics() {
		t.Fatalf("expected no metrics, got %v", body.Metrics)
	}
	if msg, _ := body.String("message"); msg != "hello" {
		t.Fatalf("message: got %q", msg)
	}
	if _, ok := body.Fields["user"].(map[string]any); !ok {
		t.Fatalf("user object should pass through unchanged")
	}
	if id, _ := body.String("resource_id"); id != "42" {
		t.Fatalf("numeric resource_id: got %q", id)
	}
}

func TestNormalizeNeverFailsTheCaller(t *testing.T) {
	raw := []byte(`{"broken":`)
	body, err := Normalize("application/json", raw)
	if err == nil {
		t.Fatalf("expected parse error to be reported for logging")
	}
	if body == nil {
		t.Fatalf("expected a pass-through body on failure")
	}
	if string(body.Raw) != string(raw) {
		t.Fatalf("raw body must pass through unchanged")
	}
	if len(body.Fields) != 0 || body.HasMetrics() {
		t.Fatalf("expected empty canonical fields on failure")
	}

	empty, err := Normalize("", nil)
	if err != nil || empty == nil {
		t.Fatalf("empty body: body=%v err=%v", empty, err)
	}
}

func TestToNumber(t *testing.T) {
	if ToNumber("12.5") != 12.5 || ToNumber(3.0) != 3 || ToNumber(true) != 1 || ToNumber(nil) != 0 {
		t.Fatalf("unexpected coercions")
	}
	if !math.IsNaN(ToNumber("12abc")) || !math.IsNaN(ToNumber([]any{1})) {
		t.Fatalf("expected NaN for non-numeric input")
	}
}

func TestNormalizeFormFoldsBracketKeys(t *testing.T) {
	raw := []byte("message=hi&user%5Bid%5D=u1&user%5Bname%5D=Ann&config%5Btheme%5D=dark&config%5Blayout%5D%5Bcols%5D=3&metrics%5Bcpu%5D=70&tags%5B%5D=a&x=1&x%5By%5D=2")
	body, err := Normalize("application/x-www-form-urlencoded", raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	user, ok := body.Fields["user"].(map[string]any)
	if !ok || user["id"] != "u1" || user["name"] != "Ann" {
		t.Fatalf("user: got %#v", body.Fields["user"])
	}
	config, ok := body.Fields["config"].(map[string]any)
	if !ok || config["theme"] != "dark" {
		t.Fatalf("config: got %#v", body.Fields["config"])
	}
	layout, ok := config["layout"].(map[string]any)
	if !ok || layout["cols"] != "3" {
		t.Fatalf("config.layout: got %#v", config["layout"])
	}
	if body.Metrics["cpu"] != 70 {
		t.Fatalf("metrics: got %v", body.Metrics)
	}
	if _, ok := body.Fields["metrics"]; ok {
		t.Fatalf("metrics must not be folded into Fields")
	}
	if body.Fields["tags[]"] != "a" {
		t.Fatalf("empty-segment key should stay verbatim: %#v", body.Fields)
	}
	if body.Fields["x"] != "1" || body.Fields["x[y]"] != "2" {
		t.Fatalf("scalar collision should keep the bracket key flat: %#v", body.Fields)
	}
	if msg, _ := body.String("message"); msg != "hi" {
		t.Fatalf("message: got %q", msg)
	}
}
