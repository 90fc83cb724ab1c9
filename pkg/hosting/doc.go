// Package hosting runs the long-lived components of a process.
//
// A Host owns an ordered list of Service values. Run starts them in order,
// waits for the context to end or for SIGINT/SIGTERM, and stops them in
// reverse order within a shared shutdown timeout:
//
//	h := hosting.New(
//		hosting.WithLogger(log),
//		hosting.WithService("mongo", provider),
//		hosting.WithService("http", probes),
//	)
//	if err := h.Run(ctx); err != nil {
//		log.Error("host stopped", logger.Error(err))
//	}
//
// If a service fails to start, the ones already running are stopped before
// Run returns. Start errors are joined with ErrStart, stop errors with
// ErrStop.
package hosting
