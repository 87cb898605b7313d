package engine

import (
	"time"

	"github.com/tungetti/gauntlet/internal/failure"
)

// Status is the final status of a unit.
type Status int

const (
	// StatusSuccessful means every phase completed without an uncollected failure.
	StatusSuccessful Status = iota
	// StatusSkipped means a condition disabled the unit.
	StatusSkipped
	// StatusFailed means at least one failure was reported.
	StatusFailed
	// StatusAborted means the unit was not run because the run stopped early.
	StatusAborted
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccessful:
		return "successful"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Result summarizes one unit execution.
type Result struct {
	UnitID      string
	DisplayName string
	Status      Status
	// Reason is the skip or abort reason.
	Reason string
	// Err is the error reported for the unit, nil unless Status is StatusFailed.
	Err error
	// Failures lists the collected failures in collection order.
	Failures []*failure.Failure
	// Handling describes how a body error was handled.
	Handling HandlingResult
	Duration time.Duration
}

// IsSuccess reports whether the unit succeeded or was skipped.
func (r Result) IsSuccess() bool {
	return r.Status == StatusSuccessful || r.Status == StatusSkipped
}

// Aborted returns a result for a unit that never ran.
func Aborted(u *Unit, reason string) Result {
	return Result{UnitID: u.ID(), DisplayName: u.DisplayName(), Status: StatusAborted, Reason: reason}
}

// Run drives u through Prepare, ShouldBeSkipped and Execute and reports the
// outcome as a Result. Errors raised by Prepare or ShouldBeSkipped produce a
// failed result.
func (en *Engine) Run(parent *ExecutionContext, u *Unit) Result {
	return en.RunWithStart(parent, u, nil)
}

// RunWithStart is Run with a callback invoked once the unit is known to run,
// right before Execute.
func (en *Engine) RunWithStart(parent *ExecutionContext, u *Unit, started func(*Unit)) Result {
	start := time.Now()
	x := en.NewExecution(u)
	result := Result{UnitID: u.ID(), DisplayName: u.DisplayName()}

	ctx, err := x.Prepare(parent)
	if err != nil {
		return en.finish(&result, start, StatusFailed, err)
	}

	skip, err := x.ShouldBeSkipped(ctx)
	if err != nil {
		return en.finish(&result, start, StatusFailed, err)
	}
	if skip.Skipped {
		result.Reason = skip.Reason
		return en.finish(&result, start, StatusSkipped, nil)
	}

	if started != nil {
		started(u)
	}
	_, err = x.Execute(ctx)
	result.Failures = x.Failures()
	result.Handling = x.Handling()
	if err != nil {
		return en.finish(&result, start, StatusFailed, err)
	}
	return en.finish(&result, start, StatusSuccessful, nil)
}

func (en *Engine) finish(r *Result, start time.Time, status Status, err error) Result {
	r.Status = status
	r.Err = err
	r.Duration = time.Since(start)
	// errors raised before any phase ran are reported outside the lifecycle phases
	if err != nil && len(r.Failures) == 0 {
		r.Failures = []*failure.Failure{{Phase: failure.PhaseUnknown, Source: r.UnitID, Err: err}}
	}
	return *r
}
