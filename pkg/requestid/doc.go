// Package requestid tags every HTTP request with a correlation id.
//
// Middleware accepts a client supplied X-Request-ID when it is short and made
// of letters, digits, dashes and underscores; otherwise it generates a UUID.
// The id is stored in the request context, echoed in the response header and
// picked up by the logger through LoggerExtractor.
package requestid
