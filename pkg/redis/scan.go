package redis

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultScanBatchSize = 500

// ScanKeys walks every key matching pattern with SCAN, so the server is
// never blocked the way KEYS would, and hands each non-empty batch to fn.
// A key may be reported more than once if the keyspace changes during the walk.
func ScanKeys(ctx context.Context, client redis.UniversalClient, pattern string, batch int64, fn func(keys []string) error) error {
	if batch <= 0 {
		batch = defaultScanBatchSize
	}

	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, batch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

// EscapePattern quotes the glob metacharacters of s so it matches itself
// literally in a SCAN MATCH or KEYS pattern.
//
//	redis.ScanKeys(ctx, client, redis.EscapePattern(prefix)+"*", 0, fn)
func EscapePattern(s string) string {
	return globEscaper.Replace(s)
}
