// Package logger builds *slog.Logger instances with environment presets,
// context-driven attributes and a small set of attribute helpers.
//
// New applies functional options on top of JSON/info defaults and wraps the
// chosen handler in LogHandlerDecorator, which runs the registered
// ContextExtractor functions on every record. This is how request ids end up
// in every log line without passing them around explicitly.
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Parse(cfg.Env), cfg.AppName),
//		logger.WithConfig(cfg.Log),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "entity stored",
//		logger.Operation("add"),
//		logger.Key(e.Key),
//		logger.Duration(time.Since(start)),
//	)
//
// Error and RequestID return an empty attribute for zero input, which slog
// skips, so callers do not need nil checks.
//
// Components accept an optional logger and use OrDiscard to fall back to a
// logger that drops everything.
package logger
