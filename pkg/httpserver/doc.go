// Package httpserver serves the process's probe endpoints over HTTP.
//
// Server wraps net/http with a Start/Stop lifecycle so it can be registered
// with a hosting.Host. Start binds the address synchronously, which makes an
// occupied port a startup error instead of a log line, and serves in the
// background. Stop shuts down gracefully within WithShutdownTimeout.
//
// ProbeRouter builds a chi router with three routes:
//
//	GET /healthz   200 "ALIVE"
//	GET /readyz    200 "READY" or 503 "NOT_READY" after pinging the database
//	GET /database  {"database": "db1", "exists": true}
//
// The existence check opens a connection per call. Wrap the database with
// CacheDatabase to answer repeated /database requests from the last result.
//
// # Usage
//
//	probes := httpserver.NewFromConfig(cfg,
//		httpserver.ProbeRouter(log,
//			httpserver.CacheDatabase(provider, 10*time.Second),
//			opts.DatabaseID, 5*time.Second),
//		httpserver.WithLogger(log),
//	)
//	host := hosting.New(hosting.WithService("probes", probes))
//
// # Errors
//
// Start wraps listen errors with ErrStart. Stop wraps shutdown errors with
// ErrShutdown and unexpected serve errors with ErrServe.
package httpserver
