// Package mongo implements entitycache.Store on a MongoDB collection,
// one document per entity with the key as _id.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

// DefaultCollection is used when New is given an empty name.
const DefaultCollection = "cache_entities"

type document struct {
	Key          string    `bson:"_id"`
	Payload      string    `bson:"payload"`
	LastAccessed time.Time `bson:"last_accessed"`
}

// Store persists entities in a single collection.
type Store struct {
	coll *mongo.Collection
}

func New(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{coll: db.Collection(collection)}
}

func (s *Store) Save(ctx context.Context, e entitycache.Entity) error {
	doc := document{Key: e.Key, Payload: e.Payload, LastAccessed: e.LastAccessed.UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: e.Key}}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) FindByKey(ctx context.Context, key string) (entitycache.Entity, bool, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entitycache.Entity{}, false, nil
	}
	if err != nil {
		return entitycache.Entity{}, false, err
	}
	return entitycache.Entity{
		Key:          doc.Key,
		Payload:      doc.Payload,
		LastAccessed: doc.LastAccessed.UTC(),
	}, true, nil
}

func (s *Store) DeleteByKey(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}})
	return err
}

func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.D{})
	return err
}

func (s *Store) ExistsByKey(ctx context.Context, key string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: key}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
