package mlservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/cliq-relay-backend/internal/features"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 15 * time.Second

	// MaxResponseBytes caps a buffered upstream reply.
	MaxResponseBytes = 1 << 20

	predictPath = "/predict"
	healthPath  = "/health"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Metrics    *observability.Metrics
}

// Client talks JSON to the external prediction service. Every call is
// bounded by Timeout, retries included.
type Client struct {
	log        *logger.Logger
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	metrics    *observability.Metrics
}

func New(log *logger.Logger, opts Options) (*Client, error) {
	if log == nil {
		return nil, errors.New("mlservice: logger required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          50,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}}
	}
	return &Client{
		log:        log.With("client", "MLService"),
		baseURL:    baseURL,
		timeout:    timeout,
		maxRetries: maxRetries,
		httpClient: hc,
		metrics:    opts.Metrics,
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Predict sends the feature vector and decodes the reply.
func (c *Client) Predict(ctx context.Context, v features.Vector) (*PredictResult, error) {
	raw, err := c.call(ctx, "predict", http.MethodPost, predictPath, v)
	if err != nil {
		return nil, err
	}
	out := &PredictResult{Raw: raw}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return out, nil
}

// Health returns the status text reported by the service, "ok" when the
// reply carries none.
func (c *Client) Health(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, "health", http.MethodGet, healthPath, nil)
	if err != nil {
		return "", err
	}
	var hr healthResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		_ = json.Unmarshal(raw, &hr)
	}
	if strings.TrimSpace(hr.Status) == "" {
		return "ok", nil
	}
	return hr.Status, nil
}

// Forward posts body to path and returns the upstream reply verbatim.
func (c *Client) Forward(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.call(ctx, "forward", http.MethodPost, path, body)
}

func (c *Client) call(ctx context.Context, op, method, path string, body any) (json.RawMessage, error) {
	ctx, span := observability.Tracer().Start(ctx, "mlservice."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("ml.path", path),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var (
		raw json.RawMessage
		err error
	)
	for attempt := 0; ; attempt++ {
		raw, err = c.doJSON(ctx, method, path, body)
		if err == nil || !retryable(err) || attempt >= c.maxRetries {
			break
		}
		c.log.Debug("retrying ml service call", "op", op, "attempt", attempt+1, "error", err)
		if waitErr := sleepCtx(ctx, time.Duration(attempt+1)*200*time.Millisecond); waitErr != nil {
			break
		}
	}
	c.metrics.ObserveMLCall(op, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return raw, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	tooLarge := len(raw) > MaxResponseBytes
	if tooLarge {
		raw = raw[:MaxResponseBytes]
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if tooLarge {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrResponseTooLarge)
	}
	return json.RawMessage(raw), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
