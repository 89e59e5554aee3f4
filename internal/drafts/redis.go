package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultKeyPrefix = "inventory"

// RedisStore guarda cada borrador como JSON con TTL.
// Clave: <prefix>:draft:<sessionID>. Cada Save renueva el TTL.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// NewRedisStore conecta a Redis y valida la conexión antes de devolver el store.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, defaultKeyPrefix, ttl), nil
}

// NewRedisStoreWithClient arma el store sobre un cliente ya creado.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		now:       time.Now,
	}
}

var _ Store = (*RedisStore)(nil)

func (store *RedisStore) Save(ctx context.Context, record Record) error {
	record.UpdatedAt = store.now().UTC()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	if err := store.client.Set(ctx, store.key(record.SessionID), payload, store.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (store *RedisStore) Load(ctx context.Context, sessionID string) (Record, error) {
	payload, err := store.client.Get(ctx, store.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrorNotFound
		}
		return Record{}, fmt.Errorf("failed to load draft: %w", err)
	}

	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return Record{}, fmt.Errorf("failed to decode draft: %w", err)
	}
	return record, nil
}

func (store *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := store.client.Del(ctx, store.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func (store *RedisStore) Ping(ctx context.Context) error {
	return store.client.Ping(ctx).Err()
}

func (store *RedisStore) TTL() time.Duration {
	return store.ttl
}

// Close libera el cliente de Redis.
func (store *RedisStore) Close() error {
	return store.client.Close()
}

func (store *RedisStore) key(sessionID string) string {
	return store.keyPrefix + ":draft:" + sessionID
}
