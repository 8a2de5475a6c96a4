// Package entitycache keeps a bounded, expiring in-memory cache of entities
// consistent with a durable Store.
//
// Service is the only entry point callers use. It offers five operations:
//
//   - Add writes an entity to the store and then caches it.
//   - Get serves from the cache, or loads from the store on a miss, and
//     refreshes the entity's LastAccessed in both.
//   - Remove deletes one key from the store and the cache.
//   - RemoveAll empties the store and the cache.
//   - Clear empties only the cache; everything stays readable from the store.
//
// The cache is only updated after the store accepted a write, so a failed or
// timed-out store call leaves the cache as it was. Calls on the same key are
// serialized with a per-key lock; unrelated keys proceed in parallel.
//
// When the cache drops an entity on its own (capacity or TTL), the entity is
// queued to WriteBack, which persists it in the background unless the key was
// deleted or written again in the meantime. Write-back failures are logged and
// counted in Stats, never returned to callers.
//
// Errors returned by Service are *Error values matching one of ErrValidation,
// ErrNotFound or ErrStore with errors.Is.
//
//	svc, err := entitycache.New(store, cfg, entitycache.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	g.Go(svc.Run(ctx))
//
//	e, err := svc.Get(ctx, "user:42")
//	if errors.Is(err, entitycache.ErrNotFound) {
//		// ...
//	}
package entitycache
