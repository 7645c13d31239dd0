package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// captureHandler collects every log record it receives.
type captureHandler struct {
	mu      sync.Mutex
	records []map[string]any
	levels  []slog.Level
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, attrs)
	h.levels = append(h.levels, r.Level)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func withCapturedLogs(t *testing.T) *captureHandler {
	t.Helper()
	h := &captureHandler{}
	prev := slog.Default()
	slog.SetDefault(slog.New(h))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return h
}

func TestLoggingMiddlewareNamesTool(t *testing.T) {
	h := withCapturedLogs(t)

	handler := LoggingMiddleware()(func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		return nil, nil
	})

	req := &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "haystack_search"}}
	_, err := handler(context.Background(), "tools/call", req)
	require.NoError(t, err)

	require.Len(t, h.records, 1)
	assert.Equal(t, slog.LevelInfo, h.levels[0])
	assert.Equal(t, "tools/call", h.records[0]["method"])
	assert.Equal(t, "haystack_search", h.records[0]["tool"])
}

func TestLoggingMiddlewareNamesResource(t *testing.T) {
	h := withCapturedLogs(t)

	handler := LoggingMiddleware()(func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		return nil, nil
	})

	req := &sdkmcp.ReadResourceRequest{Params: &sdkmcp.ReadResourceParams{URI: "haystack://stats"}}
	_, err := handler(context.Background(), "resources/read", req)
	require.NoError(t, err)

	require.Len(t, h.records, 1)
	assert.Equal(t, "haystack://stats", h.records[0]["uri"])
}

func TestLoggingMiddlewareLogsFailures(t *testing.T) {
	h := withCapturedLogs(t)

	boom := errors.New("boom")
	handler := LoggingMiddleware()(func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		return nil, boom
	})

	req := &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "haystack_next_page"}}
	_, err := handler(context.Background(), "tools/call", req)
	assert.ErrorIs(t, err, boom)

	require.Len(t, h.records, 1)
	assert.Equal(t, slog.LevelError, h.levels[0])
	assert.Equal(t, "haystack_next_page", h.records[0]["tool"])
	assert.Equal(t, "boom", h.records[0]["error"])
}
