// Package redis implements the shared EphemeralStore on top of Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fr0stylo/tokengate/internal/app/ports"
)

const scanBatchSize = 200

// INCR and set the expiry only when this call created the key, in one round trip.
var incrementWindowScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Store is a Redis-backed EphemeralStore.
type Store struct {
	client goredis.UniversalClient
}

// NewStore wraps an existing client.
func NewStore(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// Open connects to the Redis URL and verifies reachability.
func Open(ctx context.Context, rawURL string) (*Store, error) {
	opts, err := goredis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client}, nil
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *Store) IncrementWindow(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	return incrementWindowScript.Run(ctx, s.client, []string{key}, ms).Int64()
}

func (s *Store) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func escapeGlob(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ ports.EphemeralStore = (*Store)(nil)
