package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/fitcoach-backend/internal/data/kv"
	"github.com/yungbote/fitcoach-backend/internal/platform/events"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
	"github.com/yungbote/fitcoach-backend/internal/platform/openai"
)

type Clients struct {
	OpenAI openai.Client
	Redis  *goredis.Client
	Events events.Publisher
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Openai
	ai, err := openai.NewClient(log, openai.ConfigFromEnv())
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Redis, only when it backs the store
	var rdb *goredis.Client
	if cfg.KV.Backend == KVBackendRedis {
		rdb, err = kv.DialRedis(ctx, cfg.KV.RedisAddr, cfg.KV.RedisPassword, cfg.KV.RedisDB)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
	}

	// Kafka
	var pub events.Publisher = events.Noop()
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafkaPublisher(log, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("domain events enabled", "topic", cfg.Kafka.Topic)
	}

	return Clients{OpenAI: ai, Redis: rdb, Events: pub}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Events != nil {
		_ = c.Events.Close()
	}
	// the redis client is closed by the store that wraps it
}
