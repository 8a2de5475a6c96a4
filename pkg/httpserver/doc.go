// Package httpserver runs a net/http server bound to a context.
//
// Run listens, serves and, once the context is done, shuts the server down
// within the configured timeout. Signal handling is left to the caller,
// typically through signal.NotifyContext:
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// LivenessHandler and ReadinessHandler serve plain-text probes; readiness
// runs every Check with a timeout and answers 503 when one fails.
package httpserver
