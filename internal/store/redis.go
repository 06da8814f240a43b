package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis connection timeout.
const redisConnectTimeout = 10 * time.Second

// RedisSessionStore is a Redis-backed implementation of SessionStore.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host   string
	Port   int
	Proto  string // "redis" or "rediss" (TLS)
	Pass   string
	DB     int
	Prefix string
}

// NewRedisSessionStore creates a new Redis-backed session store.
func NewRedisSessionStore(cfg *RedisConfig) (*RedisSessionStore, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := &redis.Options{
		Addr:     addr,
		Password: cfg.Pass,
		DB:       cfg.DB,
	}

	// Enable TLS for rediss:// protocol
	if cfg.Proto == "rediss" {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "session:"
	}

	return &RedisSessionStore{
		client: client,
		prefix: prefix,
	}, nil
}

// Store saves a token set under the given session id with a TTL.
func (s *RedisSessionStore) Store(id string, data *TokenSet, ttl time.Duration) error {
	ctx := context.Background()

	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	data.ExpiresAt = time.Now().Add(ttl)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling session data: %w", err)
	}

	key := s.prefix + id
	if err := s.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	return nil
}

// Get retrieves the token set for a session id.
// Returns nil if the session doesn't exist or has expired.
func (s *RedisSessionStore) Get(id string) (*TokenSet, error) {
	ctx := context.Background()
	key := s.prefix + id

	jsonData, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Session doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	var data TokenSet
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("unmarshaling session data: %w", err)
	}

	return &data, nil
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(id string) error {
	ctx := context.Background()
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
