// Package redis connects to Redis with go-redis/v9 for the Redis store.
//
// Config is read from REDIS_* environment variables. Connect retries until
// the server answers PING, ScanKeys iterates a key pattern in batches,
// EscapePattern quotes a literal prefix for such a pattern and Healthcheck
// returns a probe for readiness endpoints.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = redis.ScanKeys(ctx, client, redis.EscapePattern(cfg.KeyPrefix)+"*", cfg.ScanBatchSize, func(keys []string) error {
//		return client.Unlink(ctx, keys...).Err()
//	})
package redis
