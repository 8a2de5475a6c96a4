// Package entities serves the cache coordinator over a JSON HTTP API.
//
// Routes, relative to /api/caching:
//
//	POST   /          add or replace an entity, body {"key": "...", "payload": "..."}
//	GET    /{key}     read an entity
//	DELETE /{key}     remove an entity from store and cache
//	DELETE /          remove every entity from store and cache
//	POST   /clear     drop the cache, the store is untouched
//
// Cache and write-back counters are served at GET /api/stats.
//
// Responses use the handler package envelope. Validation errors are 400,
// missing entities 404 and store failures 503.
package entities
