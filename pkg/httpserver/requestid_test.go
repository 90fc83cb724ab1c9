package httpserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongokit/pkg/httpserver"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{"client id reused", "abc-123_XYZ", true},
		{"missing id generated", "", false},
		{"invalid characters replaced", "id with spaces", false},
		{"too long replaced", strings.Repeat("a", 129), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			h := httpserver.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = httpserver.RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(httpserver.RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(httpserver.RequestIDHeader)
			assert.Equal(t, seen, got)
			if tt.wantSame {
				assert.Equal(t, tt.header, got)
				return
			}
			_, err := uuid.Parse(got)
			require.NoError(t, err)
		})
	}
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	_, ok := httpserver.RequestIDExtractor(context.Background())
	assert.False(t, ok)

	var attrKey, attrVal string
	h := httpserver.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		attr, ok := httpserver.RequestIDExtractor(r.Context())
		require.True(t, ok)
		attrKey, attrVal = attr.Key, attr.Value.String()
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(httpserver.RequestIDHeader, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "request_id", attrKey)
	assert.Equal(t, "req-1", attrVal)
}

func TestProbeRouter_SetsRequestID(t *testing.T) {
	t.Parallel()

	rec := serve(httpserver.ProbeRouter(nil, fakeDatabase{}, "db1", 0), "/healthz")
	assert.NotEmpty(t, rec.Header().Get(httpserver.RequestIDHeader))
}
