package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/yungbote/cliq-relay-backend/internal/clients/mlservice"
	"github.com/yungbote/cliq-relay-backend/internal/clients/redis"
	"github.com/yungbote/cliq-relay-backend/internal/features"
)

type fakeML struct {
	mu sync.Mutex

	predictRaw string
	predictErr error
	healthText string
	healthErr  error
	forwardRaw string
	forwardErr error
	// onPredict runs just before a successful Predict returns.
	onPredict func()

	predictCalls int
	lastVector   features.Vector
	lastForward  any
}

func (f *fakeML) Predict(ctx context.Context, v features.Vector) (*mlservice.PredictResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predictCalls++
	f.lastVector = v
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	res := &mlservice.PredictResult{Raw: json.RawMessage(f.predictRaw)}
	if err := json.Unmarshal(res.Raw, res); err != nil {
		return nil, err
	}
	if f.onPredict != nil {
		f.onPredict()
	}
	return res, nil
}

func (f *fakeML) Health(ctx context.Context) (string, error) {
	if f.healthErr != nil {
		return "", f.healthErr
	}
	if f.healthText == "" {
		return "ok", nil
	}
	return f.healthText, nil
}

func (f *fakeML) Forward(ctx context.Context, path string, body any) (json.RawMessage, error) {
	f.mu.Lock()
	f.lastForward = body
	f.mu.Unlock()
	if f.forwardErr != nil {
		return nil, f.forwardErr
	}
	return json.RawMessage(f.forwardRaw), nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []redis.Event
	err    error
}

func (b *fakeBus) Publish(ctx context.Context, ev redis.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, ev := range b.events {
		out = append(out, ev.Topic)
	}
	return out
}
