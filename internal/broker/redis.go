package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/CTNMhh/mpoint/internal/domain"
)

// redisChannelPrefix namespaces chat traffic inside a shared Redis.
const redisChannelPrefix = "chat:"

// Redis fans messages out through Redis pub/sub, so every server instance
// sees every publish regardless of which instance accepted the send.
type Redis struct {
	rdb     *redis.Client
	log     *zap.Logger
	metrics *Metrics
}

func NewRedis(rdb *redis.Client, log *zap.Logger, metrics *Metrics) *Redis {
	return &Redis{rdb: rdb, log: log, metrics: metrics}
}

func (b *Redis) Publish(ctx context.Context, key string, msg *domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message for publish: %w", err)
	}
	if err := b.rdb.Publish(ctx, redisChannelPrefix+key, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", key, err)
	}
	b.metrics.Published()
	return nil
}

func (b *Redis) Subscribe(ctx context.Context, key string) (Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, redisChannelPrefix+key)

	// Force the subscription onto the wire before we report readiness, so a
	// publish right after Subscribe returns is not silently missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", key, err)
	}

	sub := &redisSub{
		pubsub:  pubsub,
		metrics: b.metrics,
		ch:      make(chan domain.Message, subscriberBuffer),
	}
	b.metrics.SubscriberAdded()

	go func() {
		defer close(sub.ch)
		for raw := range pubsub.Channel() {
			var msg domain.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				b.log.Warn("broker: dropping undecodable payload",
					zap.String("key", key), zap.Error(err))
				continue
			}
			select {
			case sub.ch <- msg:
				b.metrics.Delivered()
			default:
				b.metrics.Dropped()
			}
		}
	}()

	return sub, nil
}

type redisSub struct {
	pubsub  *redis.PubSub
	metrics *Metrics
	ch      chan domain.Message
	once    sync.Once
}

func (s *redisSub) C() <-chan domain.Message { return s.ch }

// Close tears down the Redis subscription; the pump goroutine then drains out
// and closes C. Idempotent.
func (s *redisSub) Close() {
	s.once.Do(func() {
		s.pubsub.Close()
		s.metrics.SubscriberRemoved()
	})
}
