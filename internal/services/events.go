package services

import (
	"context"

	"github.com/yungbote/cliq-relay-backend/internal/clients/redis"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/ctxutil"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

// Event topics published on the bus.
const (
	TopicPredictionCreated = "prediction.created"
	TopicAlertReceived     = "alert.received"
)

// eventPublisher fans domain events out to the optional bus. Failures are
// logged and counted, never returned.
type eventPublisher struct {
	bus     redis.EventBus
	log     *logger.Logger
	metrics *observability.Metrics
}

func (p eventPublisher) publish(ctx context.Context, topic string, data map[string]any) {
	if p.bus == nil {
		return
	}
	ev := redis.Event{Topic: topic, Data: data, RequestID: ctxutil.RequestID(ctx)}
	err := p.bus.Publish(ctx, ev)
	p.metrics.ObserveEvent(topic, err)
	if err != nil && p.log != nil {
		p.log.Warn("event publish failed", "topic", topic, "error", err)
	}
}
