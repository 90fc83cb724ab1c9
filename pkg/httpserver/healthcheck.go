package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/mongokit/pkg/logger"
)

// HealthCheckHandler returns a HTTP handler that can be used for both
// liveness and readiness probes.
//
//   - Liveness: when no dependency functions are supplied the handler simply
//     returns 200 OK with body "ALIVE".
//   - Readiness: when one or more dependency functions are supplied each
//     function is executed with the request context; if they all succeed the
//     handler returns 200 OK with body "READY". If any of them return an
//     error the handler returns 503 Service Unavailable with body "NOT_READY".
func HealthCheckHandler(log *slog.Logger, funcs ...func(context.Context) error) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if len(funcs) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, f := range funcs {
			if err := f(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "Readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}

// Database is the part of the mongo provider the probe routes query.
type Database interface {
	Healthcheck(ctx context.Context) error
	DatabaseExists(ctx context.Context) (bool, error)
}

// DatabaseStatus is the body of GET /database.
type DatabaseStatus struct {
	Database string `json:"database"`
	Exists   bool   `json:"exists"`
	Error    string `json:"error,omitempty"`
}

// DatabaseHandler runs the existence check for name and reports it as JSON.
// A failed check answers 503 with the error message.
func DatabaseHandler(log *slog.Logger, db Database, name string) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		status := DatabaseStatus{Database: name}
		code := http.StatusOK

		exists, err := db.DatabaseExists(r.Context())
		if err != nil {
			log.WarnContext(r.Context(), "Database check failed", logger.Database(name), logger.Error(err))
			status.Error = err.Error()
			code = http.StatusServiceUnavailable
		}
		status.Exists = exists

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}

// ProbeRouter mounts the probe routes:
//
//	GET /healthz   liveness
//	GET /readyz    pings the database clients
//	GET /database  existence check of the configured database
//
// Each request gets at most timeout to finish its checks and carries a
// request id (see RequestID).
func ProbeRouter(log *slog.Logger, db Database, name string, timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID, middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", HealthCheckHandler(log))
	r.Get("/readyz", HealthCheckHandler(log, db.Healthcheck))
	r.Get("/database", DatabaseHandler(log, db, name))
	return r
}
