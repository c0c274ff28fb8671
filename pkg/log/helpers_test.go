package log

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"VisionGuard/internal/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileLogHelper builds a LogHelper writing to a temp file and returns a
// function that reads everything written so far.
func newFileLogHelper(t *testing.T) (*LogHelper, func() string) {
	t.Helper()

	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "helpers_test.log")

	cfg := &conf.Log{
		Level:      "debug",
		Format:     "json",
		OutputFile: logFile,
		Env:        "production",
	}

	zapLog, err := NewZapLogger(cfg)
	require.NoError(t, err)

	helper := NewLogHelper(NewKratosAdapter(zapLog))

	read := func() string {
		_ = zapLog.Sync()
		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		return string(content)
	}
	return helper, read
}

func TestLogHelper_TypedEntries(t *testing.T) {
	tests := []struct {
		name     string
		logFn    func(h *LogHelper)
		wantType string
	}{
		{"startup", func(h *LogHelper) { h.Startup("service ready", "addr", ":8080") }, "startup"},
		{"health", func(h *LogHelper) { h.Health("poll tick", "interval", "15s") }, "health"},
		{"breaker", func(h *LogHelper) { h.Breaker("breaker opened", "capability", "detection") }, "breaker"},
		{"fallback", func(h *LogHelper) { h.Fallback("fallback served", "source", "cache") }, "fallback"},
		{"database", func(h *LogHelper) { h.Database("row written") }, "database"},
		{"redis", func(h *LogHelper) { h.Redis("snapshot published") }, "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			helper, read := newFileLogHelper(t)

			tt.logFn(helper)

			content := read()
			assert.Contains(t, content, `"type":"`+tt.wantType+`"`)
		})
	}
}

func TestLogHelper_Request(t *testing.T) {
	helper, read := newFileLogHelper(t)

	helper.Request("GET", "/v1/degradation/status", 200, 12)

	content := read()
	assert.Contains(t, content, `"type":"request"`)
	assert.Contains(t, content, `"method":"GET"`)
	assert.Contains(t, content, `"url":"/v1/degradation/status"`)
	assert.Contains(t, content, `"status":200`)
	assert.Contains(t, content, "GET /v1/degradation/status - 200 (12ms)")
}

func TestLogHelper_RequestWithContext(t *testing.T) {
	helper, read := newFileLogHelper(t)

	ctx := WithRequestContext(context.Background(), "req1234567")
	helper.RequestWithContext(ctx, "POST", "/v1/degradation/report", 200, 8)

	content := read()
	assert.Contains(t, content, `"request_id":"req1234567"`)
	assert.NotContains(t, content, "slow_request")
}

func TestLogHelper_RequestWithContext_SlowRequest(t *testing.T) {
	helper, read := newFileLogHelper(t)

	ctx := WithRequestContext(context.Background(), "req1234567")
	helper.RequestWithContext(ctx, "GET", "/v1/degradation/status", 200, 1500)

	content := read()
	assert.Contains(t, content, `"type":"slow_request"`)
	assert.Contains(t, content, `"threshold_ms":1000`)
}
