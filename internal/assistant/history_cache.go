package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// HistoryCache fronts TurnStore.Recent for the hot default-limit lookup.
// Postgres stays the source of truth; a cache miss is never an error.
type HistoryCache struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

func NewHistoryCache(client *redis.Client, ttl time.Duration) *HistoryCache {
	if client == nil {
		panic("assistant: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HistoryCache{
		redis:  client,
		tracer: otel.Tracer("cuido.internal.assistant.history_cache"),
		ttl:    ttl,
	}
}

// Load returns the cached turns and whether the key was present.
func (c *HistoryCache) Load(ctx context.Context, caregiverID, patientID int64) ([]ConversationTurn, bool, error) {
	ctx, span := c.tracer.Start(ctx, "assistant.history_cache.load")
	defer span.End()

	data, err := c.redis.Get(ctx, historyKey(caregiverID, patientID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		span.RecordError(err)
		return nil, false, fmt.Errorf("assistant: load cached history: %w", err)
	}

	var turns []ConversationTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("assistant: decode cached history: %w", err)
	}
	return turns, true, nil
}

// Save caches the turns for the caregiver-patient pair.
func (c *HistoryCache) Save(ctx context.Context, caregiverID, patientID int64, turns []ConversationTurn) error {
	ctx, span := c.tracer.Start(ctx, "assistant.history_cache.save")
	defer span.End()

	data, err := json.Marshal(turns)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: marshal history: %w", err)
	}
	if err := c.redis.Set(ctx, historyKey(caregiverID, patientID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: persist cached history: %w", err)
	}
	return nil
}

// Invalidate drops the cached history after an append or a purge.
func (c *HistoryCache) Invalidate(ctx context.Context, caregiverID, patientID int64) error {
	ctx, span := c.tracer.Start(ctx, "assistant.history_cache.invalidate")
	defer span.End()

	if err := c.redis.Del(ctx, historyKey(caregiverID, patientID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: invalidate cached history: %w", err)
	}
	return nil
}

func historyKey(caregiverID, patientID int64) string {
	return fmt.Sprintf("chat_history:%d:%d", caregiverID, patientID)
}
