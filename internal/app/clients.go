package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/cliq-relay-backend/internal/clients/mlservice"
	"github.com/yungbote/cliq-relay-backend/internal/clients/redis"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

type Clients struct {
	ML *mlservice.Client
	// Bus stays a nil interface when REDIS_ADDR is unset.
	Bus redis.EventBus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	ml, err := mlservice.New(log, mlservice.Options{
		BaseURL:    cfg.MLServiceURL,
		Timeout:    cfg.MLTimeout,
		MaxRetries: cfg.MLMaxRetries,
		Metrics:    metrics,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init ml service client: %w", err)
	}

	var bus redis.EventBus
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := redis.NewEventBus(ctx, log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		bus = b
	} else {
		log.Info("REDIS_ADDR not set; domain events are disabled")
	}

	return Clients{ML: ml, Bus: bus}, nil
}

func (c Clients) Close() error {
	if c.Bus == nil {
		return nil
	}
	return c.Bus.Close()
}
