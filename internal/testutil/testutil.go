// Package testutil provides shared fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestPostgresIntegration(t *testing.T) {
//	    dsn := testutil.RequirePostgres(t)
//	    ...
//	}
package testutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// PostgresDSNEnv names the variable holding a test database DSN.
const PostgresDSNEnv = "TWEETNORM_TEST_POSTGRES_DSN"

// RequirePostgres skips the test unless a test database DSN is configured,
// and returns it.
func RequirePostgres(tb testing.TB) string {
	tb.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		tb.Skipf("postgres not available; set %s to run this test", PostgresDSNEnv)
	}

	return dsn
}

// WriteLines writes lines, newline-terminated, to name inside a fresh temp
// directory and returns the file path.
func WriteLines(tb testing.TB, name string, lines ...string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}

	return path
}

// LogBuffer is a goroutine-safe buffer for captured log output.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogs returns a debug-level text logger and the buffer it writes to.
func CaptureLogs() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	h := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), buf
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
