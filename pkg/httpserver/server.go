package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/mongokit/pkg/logger"
)

type config struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	startHooks      []func(*slog.Logger, string)
	stopHooks       []func(*slog.Logger)
}

func defaultConfig() *config {
	return &config{
		addr:            ":8080",
		shutdownTimeout: 5 * time.Second,
	}
}

// Server is an http.Server with a Start/Stop lifecycle, so it can run as a
// hosting.Service next to the other components of a process.
type Server struct {
	cfg     *config
	handler http.Handler

	mu      sync.Mutex
	srv     *http.Server
	ln      net.Listener
	serveCh chan error
	once    sync.Once
	stopErr error
}

// New returns a configured Server for handler. A nil handler answers 404.
func New(handler http.Handler, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Discard()
	}
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	return &Server{cfg: cfg, handler: handler}
}

// Start binds the listen address and serves in the background. Bind errors
// are returned wrapped with ErrStart. Start may be called once.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.Join(ErrStart, errors.New("server already running"))
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.addr)
	if err != nil {
		return errors.Join(ErrStart, err)
	}

	s.srv = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.readTimeout,
		WriteTimeout: s.cfg.writeTimeout,
		IdleTimeout:  s.cfg.idleTimeout,
		ErrorLog:     slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelError),
	}
	s.ln = ln
	s.serveCh = make(chan error, 1)

	go func(srv *http.Server, ch chan<- error) {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.cfg.logger.Error("HTTP server stopped unexpectedly", logger.Error(err))
		}
		ch <- err
	}(s.srv, s.serveCh)

	addr := ln.Addr().String()
	s.cfg.logger.InfoContext(ctx, "HTTP server listening", logger.Address(addr))
	for _, h := range s.cfg.startHooks {
		h(s.cfg.logger, addr)
	}
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop shuts the server down gracefully within the shutdown timeout. Before
// Start it does nothing. After Start it is safe for repeated calls; only the
// first does any work. Any error from http.Server.Shutdown is wrapped with
// ErrShutdown.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, serveCh := s.srv, s.serveCh
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.stopErr = errors.Join(ErrShutdown, err)
		} else if err := <-serveCh; err != nil {
			s.stopErr = errors.Join(ErrServe, err)
		}

		for _, h := range s.cfg.stopHooks {
			h(s.cfg.logger)
		}
		s.cfg.logger.InfoContext(ctx, "HTTP server stopped")
	})
	return s.stopErr
}
