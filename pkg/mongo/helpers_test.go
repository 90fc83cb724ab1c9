package mongo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongokit/pkg/logger"
	"github.com/dmitrymomot/mongokit/pkg/mongo"
)

// syncBuffer is a bytes.Buffer safe for the driver's background goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// entries decodes every JSON log line written so far.
func (b *syncBuffer) entries(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func messages(t *testing.T, b *syncBuffer) []string {
	t.Helper()
	var out []string
	for _, e := range b.entries(t) {
		out = append(out, e["msg"].(string))
	}
	return out
}

func debugLogger(w *syncBuffer) *slog.Logger {
	return logger.New(
		logger.WithOutput(w),
		logger.WithJSONFormatter(),
		logger.WithLevel(slog.LevelDebug),
	)
}

func testOptions() mongo.Options {
	opts := mongo.DefaultOptions()
	opts.RetryAttempts = 1
	opts.RetryInterval = time.Millisecond
	opts.ConnectTimeout = time.Second
	return opts
}

// newProvider builds a provider against the default local URI. No server is
// needed: clients connect lazily.
func newProvider(t *testing.T, opts mongo.Options, with ...mongo.ProviderOption) *mongo.Provider {
	t.Helper()
	p, err := mongo.New(opts, with...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Stop(ctx)
	})
	return p
}
