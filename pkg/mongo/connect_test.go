package mongo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekeeper/pkg/mongo"
)

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		_, err := mongo.Connect(context.Background(), mongo.Config{})
		require.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
	})

	t.Run("malformed url", func(t *testing.T) {
		t.Parallel()
		_, err := mongo.Connect(context.Background(), mongo.Config{ConnectionURL: "not-a-mongo-url"})
		require.ErrorIs(t, err, mongo.ErrFailedToConnectToMongo)
	})
}
