package testing

import (
	stderrors "errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/failure"
	"github.com/tungetti/gauntlet/internal/logging"
)

// ============================================================================
// Error Assertions
// ============================================================================

// AssertErrorCode checks if an error has a specific error code.
func AssertErrorCode(t testing.TB, err error, expectedCode errors.Code) {
	t.Helper()

	if err == nil {
		t.Errorf("expected error with code %s, but got nil", expectedCode)
		return
	}

	if actual := errors.GetCode(err); actual != expectedCode {
		t.Errorf("expected error code %s, but got %s (error: %v)", expectedCode, actual, err)
	}
}

// AssertErrorContains checks if error message contains a substring.
func AssertErrorContains(t testing.TB, err error, substring string) {
	t.Helper()

	if err == nil {
		t.Errorf("expected error containing %q, but got nil", substring)
		return
	}

	if !strings.Contains(err.Error(), substring) {
		t.Errorf("expected error to contain %q, but got: %v", substring, err)
	}
}

// ============================================================================
// Failure Assertions
// ============================================================================

// AssertFailurePhases checks the phases of failures, in order.
func AssertFailurePhases(t testing.TB, failures []*failure.Failure, expected ...failure.Phase) {
	t.Helper()

	actual := make([]failure.Phase, len(failures))
	for i, f := range failures {
		actual[i] = f.Phase
	}
	if len(expected) == 0 && len(actual) == 0 {
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected failure phases %v, got %v", expected, actual)
	}
}

// AssertSuppressed checks that err aggregates exactly expected suppressed failures.
func AssertSuppressed(t testing.TB, err error, expected int) {
	t.Helper()

	var agg *failure.AggregateError
	if expected == 0 {
		if stderrors.As(err, &agg) {
			t.Errorf("expected no suppressed failures, got %d", len(agg.Suppressed()))
		}
		return
	}
	if !stderrors.As(err, &agg) {
		t.Errorf("expected aggregate error with %d suppressed failures, got %v", expected, err)
		return
	}
	if n := len(agg.Suppressed()); n != expected {
		t.Errorf("expected %d suppressed failures, got %d", expected, n)
	}
}

// ============================================================================
// Journal Assertions
// ============================================================================

// AssertCalls checks the journal holds exactly expected, in order.
func AssertCalls(t testing.TB, j *Journal, expected ...string) {
	t.Helper()

	actual := j.Entries()
	if len(expected) == 0 && len(actual) == 0 {
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected calls:\n  %s\ngot:\n  %s",
			strings.Join(expected, "\n  "), strings.Join(actual, "\n  "))
	}
}

// AssertNotCalled checks no journal entry has the given event.
func AssertNotCalled(t testing.TB, j *Journal, event string) {
	t.Helper()

	if calls := j.Filter(event); len(calls) > 0 {
		t.Errorf("expected no %s calls, got %v", event, calls)
	}
}

// ============================================================================
// Log Assertions
// ============================================================================

// AssertLogContains checks if the logger recorded a message containing substring.
func AssertLogContains(t testing.TB, logger *MockLogger, substring string) {
	t.Helper()

	if !logger.ContainsMessage(substring) {
		var messages []string
		for _, m := range logger.Messages() {
			messages = append(messages, m.Message)
		}
		t.Errorf("expected log to contain %q, got messages: %v", substring, messages)
	}
}

// AssertLogLevel checks if a message at level contains substring.
func AssertLogLevel(t testing.TB, logger *MockLogger, level logging.Level, substring string) {
	t.Helper()

	if !logger.ContainsMessageAtLevel(level, substring) {
		t.Errorf("expected %s log containing %q", level, substring)
	}
}

// ============================================================================
// File Assertions
// ============================================================================

// AssertFileContains checks if the file at path contains substring.
func AssertFileContains(t testing.TB, path, substring string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("failed to read %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substring) {
		t.Errorf("expected %s to contain %q", path, substring)
	}
}
