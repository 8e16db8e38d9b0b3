// Package memory provides a process-local EphemeralStore for development and tests.
package memory

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/fr0stylo/tokengate/internal/app/ports"
)

const (
	cleanupInterval = time.Minute
	maxIncrementTry = 8
)

var errIncrementContention = errors.New("memory store: increment contention")

// Store keeps ephemeral entries in a go-cache instance.
// It is only shared within one process, so it cannot coordinate multiple replicas.
type Store struct {
	cache *gocache.Cache
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.cache.Set(key, cloneBytes(value), expiration(ttl))
	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	switch v := raw.(type) {
	case []byte:
		return cloneBytes(v), true, nil
	case int64:
		return []byte(strconv.FormatInt(v, 10)), true, nil
	default:
		return nil, false, nil
	}
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.cache.Delete(key)
	}
	return nil
}

func (s *Store) SetIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := s.cache.Add(key, cloneBytes(value), expiration(ttl)); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *Store) IncrementWindow(_ context.Context, key string, ttl time.Duration) (int64, error) {
	for range maxIncrementTry {
		if err := s.cache.Add(key, int64(1), expiration(ttl)); err == nil {
			return 1, nil
		}
		// Add lost against a live entry; increment it unless it expired in between.
		count, err := s.cache.IncrementInt64(key, 1)
		if err == nil {
			return count, nil
		}
	}
	return 0, errIncrementContention
}

func (s *Store) ScanPrefix(_ context.Context, prefix string) ([]string, error) {
	items := s.cache.Items()
	keys := make([]string, 0)
	for key := range items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return []byte{}
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}

var _ ports.EphemeralStore = (*Store)(nil)
