package entitycache

import (
	"strings"
	"time"
)

// Entity is the value held in the cache and persisted in the store.
type Entity struct {
	Key          string    `json:"key"`
	Payload      string    `json:"payload"`
	LastAccessed time.Time `json:"last_accessed"`
}

func validKey(key string) bool {
	return strings.TrimSpace(key) != ""
}

// lastAccessed anchors cache expiry on the entity timestamp.
func lastAccessed(e Entity) time.Time {
	return e.LastAccessed
}
