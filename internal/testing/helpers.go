package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ============================================================================
// Context Helpers
// ============================================================================

// ContextWithTimeout creates a context with timeout for testing.
// The context is automatically cancelled when the test completes.
func ContextWithTimeout(t testing.TB, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx, cancel
}

// ContextWithCancel creates a cancellable context for testing.
// The context is automatically cancelled when the test completes.
func ContextWithCancel(t testing.TB) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx, cancel
}

// TestContext creates a context with a 30 second timeout.
func TestContext(t testing.TB) context.Context {
	t.Helper()
	ctx, _ := ContextWithTimeout(t, 30*time.Second)
	return ctx
}

// ============================================================================
// Environment Variable Helpers
// ============================================================================

// SetEnv sets an environment variable for the duration of the test.
// The original value, or unset state, is restored on cleanup.
func SetEnv(t testing.TB, key, value string) {
	t.Helper()

	original, existed := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
	t.Cleanup(func() {
		if existed {
			os.Setenv(key, original)
		} else {
			os.Unsetenv(key)
		}
	})
}

// SetEnvs sets several environment variables for the duration of the test.
func SetEnvs(t testing.TB, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		SetEnv(t, k, v)
	}
}

// ============================================================================
// Temporary File Helpers
// ============================================================================

// TempFile writes content to a new file named name in a test-scoped directory
// and returns its path.
func TempFile(t testing.TB, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// ============================================================================
// Polling Helpers
// ============================================================================

// WaitFor polls condition every interval until it holds or timeout elapses.
func WaitFor(t testing.TB, condition func() bool, timeout, interval time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	t.Fatalf("condition not met within %s", timeout)
}
