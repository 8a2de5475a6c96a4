package redis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/cachekeeper/pkg/redis"
)

func TestEscapePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain prefix", in: "cachekeeper:entity:", want: "cachekeeper:entity:"},
		{name: "star", in: "app*:", want: `app\*:`},
		{name: "question mark", in: "a?b:", want: `a\?b:`},
		{name: "character class", in: "t[1]:", want: `t\[1\]:`},
		{name: "backslash", in: `a\b:`, want: `a\\b:`},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, redis.EscapePattern(tt.in))
		})
	}
}
