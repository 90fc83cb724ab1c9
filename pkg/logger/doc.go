// Package logger builds the *slog.Logger used across mongokit.
//
// New assembles a text or JSON slog.Handler from functional options, wraps it
// with LogHandlerDecorator so attributes can be pulled from a context.Context
// on every record, and returns the logger. Attribute helpers keep key names
// consistent between packages: the connection provider logs with Database,
// Collection and ClientRole, the pool monitor with Address and ConnectionID.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "mongosample"),
//	    logger.WithContextValue("run_id", runIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
//	log.Info("client created", logger.ClientRole("insert"), logger.Database("db1"))
//
// Libraries that accept an optional logger fall back to Discard, which drops
// every record without formatting it.
//
// # Error Handling
//
// Error and Errors return an empty slog.Attr for nil errors, which slog
// ignores, so call sites do not need their own nil checks:
//
//	log.Warn("disconnect finished", logger.Error(err))
package logger
