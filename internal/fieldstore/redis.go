package fieldstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis. Change notification rides a
// pub/sub channel per key so other role views see writes without
// polling.
type RedisStore struct {
	client *redis.Client
	prefix string
	// delay before the single retry on a failed write; zero retries immediately
	writeRetry time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string, writeRetry time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{
		client:     client,
		prefix:     "ptw:",
		writeRetry: writeRetry,
	}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ptw:"}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) channel(name string) string {
	return s.prefix + "changes:" + name
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, nil
}

// Set writes the whole bundle and publishes the change. A failed write
// is retried once; publish failures are ignored since notification is
// best-effort.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.client.Set(ctx, s.key(key), value, 0).Err()
	if err != nil {
		if s.writeRetry > 0 {
			time.Sleep(s.writeRetry)
		}
		if err = s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	_ = s.client.Publish(ctx, s.channel(key), value).Err()
	return nil
}

func (s *RedisStore) Subscribe(ctx context.Context, key string) (<-chan Change, func()) {
	sub := s.client.Subscribe(ctx, s.channel(key))
	out := make(chan Change, 8)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- Change{Key: key, Value: []byte(msg.Payload)}:
			default:
				// slow subscriber, drop rather than block the reader
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
