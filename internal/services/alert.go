package services

import (
	"context"

	"github.com/yungbote/cliq-relay-backend/internal/clients/redis"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

const AlertProcessed = "Alert processed"

// AlertService accepts alerts from the bot or the widget. Alerts are not
// stored; they are logged and relayed on the event bus when one is set.
type AlertService interface {
	Accept(ctx context.Context, body map[string]any) string
}

type alertService struct {
	log    *logger.Logger
	events eventPublisher
}

func NewAlertService(log *logger.Logger, bus redis.EventBus, metrics *observability.Metrics) AlertService {
	serviceLog := log.With("service", "AlertService")
	return &alertService{
		log:    serviceLog,
		events: eventPublisher{bus: bus, log: serviceLog, metrics: metrics},
	}
}

func (s *alertService) Accept(ctx context.Context, body map[string]any) string {
	if body == nil {
		body = map[string]any{}
	}
	s.log.Info("alert received", "alert", body)
	s.events.publish(ctx, TopicAlertReceived, body)
	return AlertProcessed
}
