// Package mongo connects to MongoDB with the official v2 driver for the
// MongoDB store.
//
// Config is read from MONGODB_* environment variables. Connect retries until
// the server answers a ping or ctx is done, and Healthcheck returns a probe
// for readiness endpoints.
//
//	db, err := mongo.ConnectDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
package mongo
