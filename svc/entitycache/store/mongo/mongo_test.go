package mongo_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgmongo "github.com/dmitrymomot/cachekeeper/pkg/mongo"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache/store/mongo"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache/storetest"
)

func TestStore(t *testing.T) {
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}

	ctx := context.Background()
	db, err := pkgmongo.ConnectDatabase(ctx, pkgmongo.Config{
		ConnectionURL:  url,
		Database:       "cachekeeper_test",
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(context.Background()) })
	require.NoError(t, pkgmongo.Healthcheck(db.Client())(ctx))

	storetest.Run(t, func(t *testing.T) storetest.Store {
		name := "entities_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		t.Cleanup(func() { _ = db.Collection(name).Drop(context.Background()) })
		return mongo.New(db, name)
	})
}
