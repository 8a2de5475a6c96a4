// Package binder fills request structs from HTTP requests. Each binder has
// the signature func(*http.Request, any) error and handles one source:
// JSON reads the body, Path reads router parameters.
package binder
