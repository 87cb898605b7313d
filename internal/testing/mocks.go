// Package testing provides shared test infrastructure for gauntlet: a recording
// logger, recording extensions with a call journal, helpers, and assertions.
package testing

import (
	"context"
	"strings"
	"sync"

	"github.com/tungetti/gauntlet/internal/logging"
)

// ============================================================================
// MockLogger - Implements logging.Logger for testing
// ============================================================================

// LogMessage represents a recorded log message.
type LogMessage struct {
	Level   logging.Level
	Message string
	Fields  []interface{}
}

// Field returns the value recorded for key, or nil.
func (m LogMessage) Field(key string) interface{} {
	for i := 0; i+1 < len(m.Fields); i += 2 {
		if k, ok := m.Fields[i].(string); ok && k == key {
			return m.Fields[i+1]
		}
	}
	return nil
}

// logStore is shared by a MockLogger and every logger derived from it.
type logStore struct {
	mu       sync.Mutex
	level    logging.Level
	messages []LogMessage
}

// MockLogger implements logging.Logger and records every message.
// Loggers returned by WithPrefix and WithFields write to the same store.
type MockLogger struct {
	store  *logStore
	prefix string
	fields []interface{}
}

// NewMockLogger creates a MockLogger recording at debug level.
func NewMockLogger() *MockLogger {
	return &MockLogger{store: &logStore{level: logging.LevelDebug}}
}

// Debug logs a debug message.
func (m *MockLogger) Debug(msg string, keyvals ...interface{}) {
	m.record(logging.LevelDebug, msg, keyvals)
}

// Info logs an info message.
func (m *MockLogger) Info(msg string, keyvals ...interface{}) {
	m.record(logging.LevelInfo, msg, keyvals)
}

// Warn logs a warning message.
func (m *MockLogger) Warn(msg string, keyvals ...interface{}) {
	m.record(logging.LevelWarn, msg, keyvals)
}

// Error logs an error message.
func (m *MockLogger) Error(msg string, keyvals ...interface{}) {
	m.record(logging.LevelError, msg, keyvals)
}

// WithPrefix returns a logger sharing this logger's store with a new prefix.
func (m *MockLogger) WithPrefix(prefix string) logging.Logger {
	return &MockLogger{store: m.store, prefix: prefix, fields: m.fields}
}

// WithFields returns a logger sharing this logger's store with extra fields.
func (m *MockLogger) WithFields(keyvals ...interface{}) logging.Logger {
	fields := make([]interface{}, 0, len(m.fields)+len(keyvals))
	fields = append(fields, m.fields...)
	fields = append(fields, keyvals...)
	return &MockLogger{store: m.store, prefix: m.prefix, fields: fields}
}

// SetLevel sets the minimum recorded level.
func (m *MockLogger) SetLevel(level logging.Level) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.level = level
}

// GetLevel returns the minimum recorded level.
func (m *MockLogger) GetLevel() logging.Level {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return m.store.level
}

func (m *MockLogger) record(level logging.Level, msg string, keyvals []interface{}) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if level < m.store.level {
		return
	}
	if m.prefix != "" {
		msg = m.prefix + ": " + msg
	}
	fields := make([]interface{}, 0, len(m.fields)+len(keyvals))
	fields = append(fields, m.fields...)
	fields = append(fields, keyvals...)

	m.store.messages = append(m.store.messages, LogMessage{Level: level, Message: msg, Fields: fields})
}

// Messages returns all recorded messages.
func (m *MockLogger) Messages() []LogMessage {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return append([]LogMessage(nil), m.store.messages...)
}

// MessagesAtLevel returns the messages recorded at level.
func (m *MockLogger) MessagesAtLevel(level logging.Level) []LogMessage {
	var out []LogMessage
	for _, msg := range m.Messages() {
		if msg.Level == level {
			out = append(out, msg)
		}
	}
	return out
}

// ContainsMessage reports whether any message contains substring.
func (m *MockLogger) ContainsMessage(substring string) bool {
	for _, msg := range m.Messages() {
		if strings.Contains(msg.Message, substring) {
			return true
		}
	}
	return false
}

// ContainsMessageAtLevel reports whether any message at level contains substring.
func (m *MockLogger) ContainsMessageAtLevel(level logging.Level, substring string) bool {
	for _, msg := range m.MessagesAtLevel(level) {
		if strings.Contains(msg.Message, substring) {
			return true
		}
	}
	return false
}

// MessageCount returns the number of recorded messages.
func (m *MockLogger) MessageCount() int {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return len(m.store.messages)
}

// Clear removes all recorded messages.
func (m *MockLogger) Clear() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = nil
}

var _ logging.Logger = (*MockLogger)(nil)

// ============================================================================
// MockInstanceProvider - supplies test instances
// ============================================================================

// MockInstanceProvider returns a fixed instance or error and counts calls.
// Its TestInstance method satisfies engine.InstanceProvider.
type MockInstanceProvider struct {
	mu       sync.Mutex
	instance interface{}
	err      error
	calls    int
}

// NewMockInstanceProvider creates a provider returning instance.
func NewMockInstanceProvider(instance interface{}) *MockInstanceProvider {
	return &MockInstanceProvider{instance: instance}
}

// SetError makes subsequent calls fail with err.
func (p *MockInstanceProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// TestInstance returns the configured instance or error.
func (p *MockInstanceProvider) TestInstance(ctx context.Context) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.instance, nil
}

// Calls returns how many times TestInstance was called.
func (p *MockInstanceProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
