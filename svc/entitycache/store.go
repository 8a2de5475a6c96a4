package entitycache

import "context"

// Store is the durable, authoritative keyed storage behind the cache.
//
// Implementations must be safe for concurrent use and atomic per key.
// FindByKey reports absence as (Entity{}, false, nil), and deleting a key
// that does not exist is not an error.
type Store interface {
	Save(ctx context.Context, e Entity) error
	FindByKey(ctx context.Context, key string) (Entity, bool, error)
	DeleteByKey(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
	ExistsByKey(ctx context.Context, key string) (bool, error)
}
