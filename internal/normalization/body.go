package normalization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	metricsKey    = "metrics"
	metricsPrefix = "metrics["
)

// Body is the canonical form of an inbound request body. Pass-through keys
// stay in Fields; bracket-encoded and nested metric values are collected
// into Metrics as numbers.
type Body struct {
	Fields  map[string]any
	Metrics map[string]float64
	// Raw is the body exactly as received.
	Raw  []byte
	Form bool
}

// HasMetrics reports whether any metric value was extracted.
func (b *Body) HasMetrics() bool { return b != nil && len(b.Metrics) > 0 }

// String returns a pass-through field as a string. Numbers are formatted
// without exponent so numeric resource ids survive.
func (b *Body) String(key string) (string, bool) {
	if b == nil {
		return "", false
	}
	v, ok := b.Fields[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// IsForm reports whether a Content-Type header denotes form encoding.
func IsForm(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "application/x-www-form-urlencoded")
	}
	return mt == "application/x-www-form-urlencoded"
}

// Normalize canonicalizes raw according to contentType. It never fails: when
// the body cannot be parsed the returned Body carries Raw untouched and an
// empty Fields map, and the parse error is returned for logging only.
func Normalize(contentType string, raw []byte) (*Body, error) {
	out := &Body{Fields: map[string]any{}, Raw: raw, Form: IsForm(contentType)}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	var flat map[string]any
	var err error
	if out.Form {
		flat, err = parseForm(raw)
	} else {
		flat, err = parseJSON(raw)
	}
	if err != nil {
		return out, err
	}

	for key, val := range flat {
		if name, ok := bracketMetric(key); ok {
			out.setMetric(name, ToNumber(val))
			continue
		}
		if key == metricsKey {
			if nested, ok := val.(map[string]any); ok {
				for name, v := range nested {
					if v == nil {
						continue
					}
					out.setMetric(name, ToNumber(v))
				}
				continue
			}
		}
		if out.Form {
			continue
		}
		out.Fields[key] = val
	}
	if out.Form {
		foldFormFields(out.Fields, flat)
	}
	return out, nil
}

// foldFormFields copies form pairs into dst, expanding "a[b][c]=v" into
// nested maps. Keys with an empty segment ("tags[]") or that collide with a
// scalar at the same path are kept verbatim.
func foldFormFields(dst map[string]any, flat map[string]any) {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		if _, ok := bracketMetric(k); ok {
			continue
		}
		keys = append(keys, k)
	}
	// Shorter keys first so "a=1" claims its slot before "a[b]=2".
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, key := range keys {
		path, ok := bracketPath(key)
		if !ok || !setPath(dst, path, flat[key]) {
			dst[key] = flat[key]
		}
	}
}

// bracketPath splits "user[address][city]" into its segments. Plain keys
// and malformed bracket syntax report false.
func bracketPath(key string) ([]string, bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return nil, false
	}
	path := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, false
		}
		seg := rest[1:end]
		if seg == "" || strings.ContainsAny(seg, "[") {
			return nil, false
		}
		path = append(path, seg)
		rest = rest[end+1:]
	}
	return path, true
}

func setPath(dst map[string]any, path []string, val any) bool {
	cur := dst
	for _, seg := range path[:len(path)-1] {
		next, exists := cur[seg]
		if !exists {
			m := map[string]any{}
			cur[seg] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		cur = m
	}
	last := path[len(path)-1]
	if existing, ok := cur[last]; ok {
		if _, isMap := existing.(map[string]any); isMap {
			return false
		}
	}
	cur[last] = val
	return true
}

func (b *Body) setMetric(name string, v float64) {
	if b.Metrics == nil {
		b.Metrics = map[string]float64{}
	}
	b.Metrics[name] = v
}

func parseForm(raw []byte) (map[string]any, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse form body: %w", err)
	}
	flat := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		flat[k] = vs[0]
	}
	return flat, nil
}

func parseJSON(raw []byte) (map[string]any, error) {
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("parse json body: %w", err)
	}
	if flat == nil {
		return nil, fmt.Errorf("parse json body: not an object")
	}
	return flat, nil
}

// bracketMetric extracts <name> from "metrics[<name>]".
func bracketMetric(key string) (string, bool) {
	if !strings.HasPrefix(key, metricsPrefix) || !strings.HasSuffix(key, "]") {
		return "", false
	}
	name := key[len(metricsPrefix) : len(key)-1]
	if name == "" {
		return "", false
	}
	return name, true
}

// ToNumber coerces a decoded value the way a permissive numeric cast would:
// blank strings are 0, unparsable input is NaN.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case bool:
		if t {
			return 1
		}
		return 0
	case nil:
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
