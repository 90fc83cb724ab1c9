package mongo

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/event"

	"github.com/dmitrymomot/mongokit/pkg/logger"
)

// poolEventLogger writes connection pool lifecycle events to a logger at
// debug level and forwards every event, logged or not, to the next monitor.
type poolEventLogger struct {
	log  *slog.Logger
	next *event.PoolMonitor
}

// NewPoolMonitor returns a PoolMonitor that logs opened, added and removed
// connections and then passes each event to next (which may be nil).
func NewPoolMonitor(log *slog.Logger, next *event.PoolMonitor) *event.PoolMonitor {
	if log == nil {
		log = logger.Discard()
	}
	l := &poolEventLogger{log: log, next: next}
	return &event.PoolMonitor{Event: l.handle}
}

func (l *poolEventLogger) handle(evt *event.PoolEvent) {
	if evt != nil {
		l.logEvent(evt)
	}
	if l.next != nil && l.next.Event != nil {
		l.next.Event(evt)
	}
}

// logEvent never lets a failing log sink reach the pool's event loop.
func (l *poolEventLogger) logEvent(evt *event.PoolEvent) {
	defer func() { _ = recover() }()

	var msg string
	switch evt.Type {
	case event.ConnectionReady:
		msg = "Opened a connection"
	case event.ConnectionCreated:
		msg = "Added a connection to the pool"
	case event.ConnectionClosed:
		msg = "Removed a connection from the pool"
	default:
		return
	}

	l.log.LogAttrs(context.Background(), slog.LevelDebug, msg,
		logger.Address(evt.Address),
		logger.ConnectionID(evt.ConnectionID),
		logger.Reason(evt.Reason),
	)
}
