package entitycache_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

func TestError(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *entitycache.Error
		want string
	}{
		{
			name: "with key and cause",
			err:  &entitycache.Error{Op: "get", Key: "user:1", Kind: entitycache.ErrStore, Err: cause},
			want: `entitycache: get "user:1": store failure: connection refused`,
		},
		{
			name: "without key",
			err:  &entitycache.Error{Op: "remove_all", Kind: entitycache.ErrStore, Err: cause},
			want: `entitycache: remove_all: store failure: connection refused`,
		},
		{
			name: "without cause",
			err:  &entitycache.Error{Op: "get", Key: "x", Kind: entitycache.ErrNotFound},
			want: `entitycache: get "x": entity not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	t.Run("matches kind and cause", func(t *testing.T) {
		var err error = &entitycache.Error{Op: "add", Kind: entitycache.ErrStore, Err: cause}

		assert.ErrorIs(t, err, entitycache.ErrStore)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, entitycache.ErrNotFound)
		assert.NotErrorIs(t, err, entitycache.ErrValidation)
	})
}
