package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisListKey = "attendance:events"

// RedisPublisher pushes events onto a Redis list (LPUSH); consumers pop
// with BRPOP. The list is capped so an absent consumer cannot grow it forever.
type RedisPublisher struct {
	client *redis.Client
	key    string
	maxLen int64
}

func NewRedisPublisher(client *redis.Client, key string, maxLen int64) *RedisPublisher {
	if key == "" {
		key = DefaultRedisListKey
	}
	return &RedisPublisher{client: client, key: key, maxLen: maxLen}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.LPush(ctx, p.key, payload)
	if p.maxLen > 0 {
		pipe.LTrim(ctx, p.key, 0, p.maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
