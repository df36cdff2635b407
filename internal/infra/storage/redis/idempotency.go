package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lendr/internal/app/middleware"
)

// NewClient builds a redis client from address and password.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

// Ping verifies the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}

// IdempotencyStore persists command outcomes in redis with a TTL, so replay
// protection survives process restarts.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

type recordDocument struct {
	Key        string    `json:"key"`
	Payload    []byte    `json:"payload,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err == redis.Nil {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("redis: get idempotency record: %w", err)
	}
	var doc recordDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:        doc.Key,
		Payload:    doc.Payload,
		Error:      doc.Error,
		OccurredAt: doc.OccurredAt,
	}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(recordDocument{
		Key:        rec.Key,
		Payload:    rec.Payload,
		Error:      rec.Error,
		OccurredAt: rec.OccurredAt,
	})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.redisKey(rec.Key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: save idempotency record: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) redisKey(key string) string {
	return "idemp:" + key
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
