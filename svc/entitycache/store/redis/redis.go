// Package redis implements entitycache.Store with one Redis hash per entity.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	pkgredis "github.com/dmitrymomot/cachekeeper/pkg/redis"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

const (
	fieldPayload      = "payload"
	fieldLastAccessed = "last_accessed" // Unix milliseconds
)

// Store keeps entities under prefix+key. The hash is written with a single
// HSET, so readers never observe a half-written entity.
type Store struct {
	client redis.UniversalClient
	prefix string
	batch  int64
}

// New returns a store using the key prefix and scan batch size from cfg.
func New(client redis.UniversalClient, cfg pkgredis.Config) *Store {
	return &Store{client: client, prefix: cfg.KeyPrefix, batch: cfg.ScanBatchSize}
}

func (s *Store) Save(ctx context.Context, e entitycache.Entity) error {
	return s.client.HSet(ctx, s.prefix+e.Key,
		fieldPayload, e.Payload,
		fieldLastAccessed, e.LastAccessed.UTC().UnixMilli(),
	).Err()
}

func (s *Store) FindByKey(ctx context.Context, key string) (entitycache.Entity, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+key).Result()
	if err != nil {
		return entitycache.Entity{}, false, err
	}
	if len(fields) == 0 {
		return entitycache.Entity{}, false, nil
	}

	ms, err := strconv.ParseInt(fields[fieldLastAccessed], 10, 64)
	if err != nil {
		return entitycache.Entity{}, false, fmt.Errorf("redis: malformed %s of %q: %w", fieldLastAccessed, key, err)
	}
	return entitycache.Entity{
		Key:          key,
		Payload:      fields[fieldPayload],
		LastAccessed: time.UnixMilli(ms).UTC(),
	}, true, nil
}

func (s *Store) DeleteByKey(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// DeleteAll removes every key under the prefix. Keys outside it are untouched.
func (s *Store) DeleteAll(ctx context.Context) error {
	return pkgredis.ScanKeys(ctx, s.client, pkgredis.EscapePattern(s.prefix)+"*", s.batch, func(keys []string) error {
		return s.client.Unlink(ctx, keys...).Err()
	})
}

func (s *Store) ExistsByKey(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
