package hosting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/mongokit/pkg/logger"
)

// Service is a component with a start and stop phase. Start must return once
// the service is running; long-running work belongs in goroutines the service
// owns and stops in Stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServiceFunc adapts a pair of functions to Service. Either may be nil.
type ServiceFunc struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (f ServiceFunc) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

func (f ServiceFunc) Stop(ctx context.Context) error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop(ctx)
}

type namedService struct {
	name string
	svc  Service
}

// Host runs a set of services for the lifetime of a process.
type Host struct {
	services        []namedService
	log             *slog.Logger
	shutdownTimeout time.Duration
	signals         []os.Signal

	mu      sync.Mutex
	running bool
}

// New returns a Host. By default it stops on SIGINT or SIGTERM and gives
// services 10 seconds to stop.
func New(opts ...Option) *Host {
	h := &Host{
		shutdownTimeout: 10 * time.Second,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.Discard()
	}
	return h
}

// Add registers a service after construction. It must not be called while
// Run is in progress.
func (h *Host) Add(name string, svc Service) {
	WithService(name, svc)(h)
}

// Run starts every service, blocks until ctx is canceled or a shutdown signal
// arrives, then stops the started services in reverse order. When a service
// fails to start, the services started before it are stopped and the start
// error is returned together with any stop errors.
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrAlreadyRunning
	}
	h.running = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	waitCtx := ctx
	if len(h.signals) > 0 {
		var stop context.CancelFunc
		waitCtx, stop = signal.NotifyContext(ctx, h.signals...)
		defer stop()
	}

	started, startErr := h.start(waitCtx)
	if startErr == nil {
		h.log.InfoContext(ctx, "Host started", slog.Int("services", len(started)))
		<-waitCtx.Done()
		h.log.InfoContext(ctx, "Host shutting down", logger.Reason(shutdownReason(ctx, waitCtx)))
	}

	stopErr := h.stop(context.WithoutCancel(ctx), started)
	if startErr != nil {
		return errors.Join(startErr, stopErr)
	}
	return stopErr
}

func (h *Host) start(ctx context.Context) ([]namedService, error) {
	started := make([]namedService, 0, len(h.services))
	for _, s := range h.services {
		h.log.DebugContext(ctx, "Starting service", logger.Component(s.name))
		if err := s.svc.Start(ctx); err != nil {
			h.log.ErrorContext(ctx, "Service failed to start", logger.Component(s.name), logger.Error(err))
			return started, errors.Join(ErrStart, fmt.Errorf("%s: %w", s.name, err))
		}
		started = append(started, s)
	}
	return started, nil
}

func (h *Host) stop(ctx context.Context, started []namedService) error {
	ctx, cancel := context.WithTimeout(ctx, h.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		s := started[i]
		h.log.DebugContext(ctx, "Stopping service", logger.Component(s.name))
		if err := s.svc.Stop(ctx); err != nil {
			h.log.ErrorContext(ctx, "Service failed to stop", logger.Component(s.name), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrStop}, errs...)...)
	}
	h.log.InfoContext(ctx, "Host stopped")
	return nil
}

func shutdownReason(parent, wait context.Context) string {
	if parent.Err() != nil {
		return "context canceled"
	}
	if wait.Err() != nil {
		return "signal"
	}
	return ""
}
