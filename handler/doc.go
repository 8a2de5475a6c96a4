// Package handler turns typed request handlers into http.HandlerFunc values.
//
// A HandlerFunc receives a Context and a request struct filled by binders
// and returns a Response. JSON responses share one envelope:
//
//	{"data": ..., "meta": {...}, "error": {"code": "...", "message": "..."}}
//
// Binding and rendering errors, and errors a handler turns into a response
// through its ErrorHandler, are mapped to statuses by Classify. Services plug
// their own error kinds in with a Classifier.
package handler
