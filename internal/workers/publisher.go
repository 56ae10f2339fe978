package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"interview_backend/internal/services/dto"
)

// RedisEventPublisher publishes EVENT_MATCHES_UPDATED payloads on a Redis
// pub/sub channel for downstream consumers.
type RedisEventPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisEventPublisher(rdb *redis.Client, channel string) *RedisEventPublisher {
	return &RedisEventPublisher{rdb: rdb, channel: channel}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event dto.MatchesUpdatedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.Type, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, p.channel, err)
	}
	return nil
}
