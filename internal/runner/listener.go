package runner

import (
	"sync"

	"github.com/tungetti/gauntlet/internal/engine"
)

// Listener is notified of unit execution events. Started and Finished are
// paired for every unit that was not skipped; aborted units only finish.
type Listener interface {
	ExecutionStarted(u *engine.Unit)
	ExecutionSkipped(u *engine.Unit, reason string)
	ExecutionFinished(u *engine.Unit, result engine.Result)
	ReportingEntryPublished(unitID string, entry map[string]string)
}

// NopListener ignores every event. Embed it to implement only some methods.
type NopListener struct{}

func (NopListener) ExecutionStarted(*engine.Unit)                     {}
func (NopListener) ExecutionSkipped(*engine.Unit, string)             {}
func (NopListener) ExecutionFinished(*engine.Unit, engine.Result)     {}
func (NopListener) ReportingEntryPublished(string, map[string]string) {}

// Event is a listener notification captured by RecordingListener.
type Event struct {
	Kind   string
	UnitID string
	Reason string
	Result engine.Result
	Entry  map[string]string
}

// RecordingListener keeps every notification in order.
type RecordingListener struct {
	mu     sync.Mutex
	events []Event
}

// NewRecordingListener creates an empty RecordingListener.
func NewRecordingListener() *RecordingListener {
	return &RecordingListener{}
}

func (l *RecordingListener) add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// ExecutionStarted implements Listener.
func (l *RecordingListener) ExecutionStarted(u *engine.Unit) {
	l.add(Event{Kind: "started", UnitID: u.ID()})
}

// ExecutionSkipped implements Listener.
func (l *RecordingListener) ExecutionSkipped(u *engine.Unit, reason string) {
	l.add(Event{Kind: "skipped", UnitID: u.ID(), Reason: reason})
}

// ExecutionFinished implements Listener.
func (l *RecordingListener) ExecutionFinished(u *engine.Unit, result engine.Result) {
	l.add(Event{Kind: "finished", UnitID: u.ID(), Result: result})
}

// ReportingEntryPublished implements Listener.
func (l *RecordingListener) ReportingEntryPublished(unitID string, entry map[string]string) {
	l.add(Event{Kind: "reported", UnitID: unitID, Entry: entry})
}

// Events returns the recorded events.
func (l *RecordingListener) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Trace renders events as "kind:unit" strings.
func (l *RecordingListener) Trace() []string {
	events := l.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Kind + ":" + e.UnitID
	}
	return out
}

// LoggingListener writes events to a logger.
type LoggingListener struct {
	NopListener
	log func(msg string, keyvals ...interface{})
}

// NewLoggingListener creates a listener that reports finished units through log.
func NewLoggingListener(log func(msg string, keyvals ...interface{})) *LoggingListener {
	return &LoggingListener{log: log}
}

// ExecutionSkipped implements Listener.
func (l *LoggingListener) ExecutionSkipped(u *engine.Unit, reason string) {
	l.log("skipped", "unit", u.DisplayName(), "reason", reason)
}

// ExecutionFinished implements Listener.
func (l *LoggingListener) ExecutionFinished(u *engine.Unit, result engine.Result) {
	kv := []interface{}{"unit", u.DisplayName(), "status", result.Status, "duration", result.Duration}
	if result.Err != nil {
		kv = append(kv, "error", result.Err)
	}
	if result.Reason != "" {
		kv = append(kv, "reason", result.Reason)
	}
	l.log("finished", kv...)
}

// ReportingEntryPublished implements Listener.
func (l *LoggingListener) ReportingEntryPublished(unitID string, entry map[string]string) {
	kv := []interface{}{"unit", unitID}
	for k, v := range entry {
		kv = append(kv, k, v)
	}
	l.log("report", kv...)
}
