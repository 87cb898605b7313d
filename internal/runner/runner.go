// Package runner drives a sequence of units through the lifecycle engine,
// notifies listeners and produces a run report.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tungetti/gauntlet/internal/engine"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/logging"
)

// Abort reasons reported for units that never ran.
const (
	ReasonFailFast  = "fail fast: an earlier unit failed"
	ReasonCancelled = "run cancelled"
)

// EventType represents the type of an execution log entry.
type EventType int

const (
	EventRunStarted EventType = iota
	EventRunCompleted
	EventRunCancelled
	EventUnitStarted
	EventUnitSucceeded
	EventUnitSkipped
	EventUnitFailed
	EventUnitAborted
	EventReportingEntry
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventRunStarted:
		return "run_started"
	case EventRunCompleted:
		return "run_completed"
	case EventRunCancelled:
		return "run_cancelled"
	case EventUnitStarted:
		return "unit_started"
	case EventUnitSucceeded:
		return "unit_succeeded"
	case EventUnitSkipped:
		return "unit_skipped"
	case EventUnitFailed:
		return "unit_failed"
	case EventUnitAborted:
		return "unit_aborted"
	case EventReportingEntry:
		return "reporting_entry"
	default:
		return "unknown"
	}
}

// Entry is a single execution log event.
type Entry struct {
	Timestamp time.Time
	UnitID    string
	EventType EventType
	Message   string
	Duration  time.Duration
	Error     error
	Data      map[string]string
}

// Report summarizes a run.
type Report struct {
	RunID         uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	TotalDuration time.Duration
	Total         int
	Succeeded     int
	Skipped       int
	Failed        int
	Aborted       int
	Cancelled     bool
	Results       []engine.Result
	ExecutionLog  []Entry
}

// Success reports whether no unit failed or was aborted.
func (r Report) Success() bool {
	return r.Failed == 0 && r.Aborted == 0
}

// Runner executes units one after another. A Runner may be reused; each Run
// starts a fresh execution log.
type Runner struct {
	engine    *engine.Engine
	failFast  bool
	listeners []Listener
	logger    logging.Logger

	executionLog []Entry
	mu           sync.RWMutex
}

// Option is a functional option for Runner.
type Option func(*Runner)

// WithFailFast aborts the remaining units after the first failure.
func WithFailFast(enabled bool) Option {
	return func(r *Runner) {
		r.failFast = enabled
	}
}

// WithListeners adds listeners notified of execution events.
func WithListeners(ls ...Listener) Option {
	return func(r *Runner) {
		for _, l := range ls {
			if l != nil {
				r.listeners = append(r.listeners, l)
			}
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a runner using en.
func New(en *engine.Engine, opts ...Option) *Runner {
	r := &Runner{engine: en, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes units in order, deriving each unit's context from root.
// Cancelling ctx aborts the units that have not started.
func (r *Runner) Run(ctx context.Context, root *engine.ExecutionContext, units []*engine.Unit) Report {
	start := time.Now()
	runID := uuid.New()
	logger := r.logger.WithFields("run", runID.String())

	r.mu.Lock()
	r.executionLog = nil
	r.mu.Unlock()

	root = root.Extend(
		engine.WithGoContext(ctx),
		engine.WithReporter(r.publish),
	)

	r.logEvent(Entry{EventType: EventRunStarted, Message: "run started"})
	logger.Info("run started", "units", len(units))

	results := make([]engine.Result, 0, len(units))
	abortReason := ""
	cancelled := false

	for _, u := range units {
		if abortReason == "" && ctx.Err() != nil {
			abortReason = ReasonCancelled
			cancelled = true
			r.logEvent(Entry{EventType: EventRunCancelled, Message: ReasonCancelled,
				Error: errors.Wrap(errors.Unknown, ReasonCancelled, ctx.Err())})
		}
		if abortReason != "" {
			result := engine.Aborted(u, abortReason)
			r.logEvent(Entry{UnitID: u.ID(), EventType: EventUnitAborted, Message: abortReason})
			r.finished(u, result)
			results = append(results, result)
			continue
		}

		result := r.runUnit(root, u, logger)
		results = append(results, result)

		if r.failFast && result.Status == engine.StatusFailed {
			abortReason = ReasonFailFast
		}
	}

	report := r.generateReport(runID, start, results, cancelled)
	r.logEvent(Entry{EventType: EventRunCompleted, Message: "run completed", Duration: report.TotalDuration})
	report.ExecutionLog = r.ExecutionLog()

	logger.Info("run completed",
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"aborted", report.Aborted,
		"duration", report.TotalDuration,
	)
	return report
}

func (r *Runner) runUnit(root *engine.ExecutionContext, u *engine.Unit, logger logging.Logger) engine.Result {
	started := false
	result := r.engine.RunWithStart(root, u, func(u *engine.Unit) {
		started = true
		r.logEvent(Entry{UnitID: u.ID(), EventType: EventUnitStarted, Message: "unit started"})
		for _, l := range r.listeners {
			l.ExecutionStarted(u)
		}
	})

	switch result.Status {
	case engine.StatusSkipped:
		r.logEvent(Entry{UnitID: u.ID(), EventType: EventUnitSkipped, Message: result.Reason})
		logger.Debug("unit skipped", "unit", u.ID(), "reason", result.Reason)
		for _, l := range r.listeners {
			l.ExecutionSkipped(u, result.Reason)
		}
		return result
	case engine.StatusFailed:
		if !started {
			// failed before Execute, during preparation or skip evaluation
			for _, l := range r.listeners {
				l.ExecutionStarted(u)
			}
		}
		r.logEvent(Entry{UnitID: u.ID(), EventType: EventUnitFailed, Message: "unit failed",
			Duration: result.Duration, Error: result.Err})
		logger.Warn("unit failed", "unit", u.ID(), "error", result.Err)
	default:
		r.logEvent(Entry{UnitID: u.ID(), EventType: EventUnitSucceeded, Message: "unit succeeded",
			Duration: result.Duration})
		logger.Debug("unit succeeded", "unit", u.ID(), "duration", result.Duration)
	}

	r.finished(u, result)
	return result
}

func (r *Runner) finished(u *engine.Unit, result engine.Result) {
	for _, l := range r.listeners {
		l.ExecutionFinished(u, result)
	}
}

func (r *Runner) publish(unitID string, entry map[string]string) {
	data := make(map[string]string, len(entry))
	for k, v := range entry {
		data[k] = v
	}
	r.logEvent(Entry{UnitID: unitID, EventType: EventReportingEntry, Message: "reporting entry published", Data: data})
	for _, l := range r.listeners {
		l.ReportingEntryPublished(unitID, data)
	}
}

// ExecutionLog returns a copy of the execution log of the latest run.
func (r *Runner) ExecutionLog() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.executionLog...)
}

// logEvent adds an event to the execution log.
func (r *Runner) logEvent(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executionLog = append(r.executionLog, e)
}

func (r *Runner) generateReport(runID uuid.UUID, start time.Time, results []engine.Result, cancelled bool) Report {
	end := time.Now()
	report := Report{
		RunID:         runID,
		StartTime:     start,
		EndTime:       end,
		TotalDuration: end.Sub(start),
		Total:         len(results),
		Cancelled:     cancelled,
		Results:       results,
	}
	for _, res := range results {
		switch res.Status {
		case engine.StatusSuccessful:
			report.Succeeded++
		case engine.StatusSkipped:
			report.Skipped++
		case engine.StatusFailed:
			report.Failed++
		case engine.StatusAborted:
			report.Aborted++
		}
	}
	return report
}
