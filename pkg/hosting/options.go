package hosting

import (
	"log/slog"
	"os"
	"time"
)

// Option configures a Host.
type Option func(*Host)

// WithLogger supplies the logger. Without it the host logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// WithShutdownTimeout bounds the time all services together get to stop.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithShutdownTimeout: duration must be > 0")
	}
	return func(h *Host) { h.shutdownTimeout = d }
}

// WithSignals replaces the signals that trigger shutdown. Passing none makes
// the host wait for context cancellation only.
func WithSignals(sigs ...os.Signal) Option {
	return func(h *Host) { h.signals = sigs }
}

// WithService registers a service. Services start in registration order and
// stop in reverse.
func WithService(name string, svc Service) Option {
	if svc == nil {
		panic("WithService: nil service")
	}
	return func(h *Host) {
		h.services = append(h.services, namedService{name: name, svc: svc})
	}
}
