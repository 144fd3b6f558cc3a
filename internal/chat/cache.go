package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iterworks/juvo-backend/internal/therapy"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// historyCache keeps each user's recent transcript hot in Redis so the
// therapy pipeline does not hit DynamoDB on every message.
type historyCache struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func newHistoryCache(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *historyCache {
	if client == nil {
		panic("chat: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if tracer == nil {
		tracer = otel.Tracer("juvo.internal.chat.history")
	}
	return &historyCache{redis: client, ttl: ttl, tracer: tracer}
}

func historyKey(userID string) string {
	return fmt.Sprintf("chat_history:%s", userID)
}

func (c *historyCache) Save(ctx context.Context, userID string, history []therapy.Turn) error {
	ctx, span := c.tracer.Start(ctx, "chat.save_history")
	defer span.End()

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to marshal history: %w", err)
	}
	if err := c.redis.Set(ctx, historyKey(userID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to cache history: %w", err)
	}
	return nil
}

// Load returns the cached history, or (nil, false) on a miss.
func (c *historyCache) Load(ctx context.Context, userID string) ([]therapy.Turn, bool, error) {
	ctx, span := c.tracer.Start(ctx, "chat.load_history")
	defer span.End()

	data, err := c.redis.Get(ctx, historyKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		span.RecordError(err)
		return nil, false, fmt.Errorf("chat: failed to load cached history: %w", err)
	}

	var history []therapy.Turn
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("chat: failed to decode cached history: %w", err)
	}
	return history, true, nil
}
