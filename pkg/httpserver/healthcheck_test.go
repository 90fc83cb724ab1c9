package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongokit/pkg/httpserver"
)

type fakeDatabase struct {
	pingErr   error
	exists    bool
	existsErr error
}

func (f fakeDatabase) Healthcheck(context.Context) error { return f.pingErr }

func (f fakeDatabase) DatabaseExists(context.Context) (bool, error) { return f.exists, f.existsErr }

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name     string
		funcs    []func(context.Context) error
		wantCode int
		wantBody string
	}{
		{"liveness", nil, http.StatusOK, "ALIVE"},
		{"ready", []func(context.Context) error{ok, ok}, http.StatusOK, "READY"},
		{"not ready", []func(context.Context) error{ok, fail}, http.StatusServiceUnavailable, "NOT_READY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(httpserver.HealthCheckHandler(nil, tt.funcs...), "/")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestProbeRouter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		db       fakeDatabase
		path     string
		wantCode int
		wantBody string
	}{
		{"healthz ignores database", fakeDatabase{pingErr: errors.New("down")}, "/healthz", http.StatusOK, "ALIVE"},
		{"readyz up", fakeDatabase{}, "/readyz", http.StatusOK, "READY"},
		{"readyz down", fakeDatabase{pingErr: errors.New("down")}, "/readyz", http.StatusServiceUnavailable, "NOT_READY"},
		{"unknown route", fakeDatabase{}, "/metrics", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(httpserver.ProbeRouter(nil, tt.db, "db1", time.Second), tt.path)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestProbeRouter_Database(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		db       fakeDatabase
		wantCode int
		want     httpserver.DatabaseStatus
	}{
		{
			name:     "exists",
			db:       fakeDatabase{exists: true},
			wantCode: http.StatusOK,
			want:     httpserver.DatabaseStatus{Database: "tb1", Exists: true},
		},
		{
			name:     "missing",
			db:       fakeDatabase{},
			wantCode: http.StatusOK,
			want:     httpserver.DatabaseStatus{Database: "tb1"},
		},
		{
			name:     "check failed",
			db:       fakeDatabase{existsErr: errors.New("no reachable servers")},
			wantCode: http.StatusServiceUnavailable,
			want:     httpserver.DatabaseStatus{Database: "tb1", Error: "no reachable servers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(httpserver.ProbeRouter(nil, tt.db, "tb1", 0), "/database")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var got httpserver.DatabaseStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProbeRouter_RecoversPanics(t *testing.T) {
	t.Parallel()

	r := httpserver.ProbeRouter(nil, fakeDatabase{}, "db1", 0)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := serve(r, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
