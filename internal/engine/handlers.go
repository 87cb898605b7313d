package engine

import (
	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/failure"
)

// Outcome classifies how a body error was handled.
type Outcome int

const (
	// OutcomeSucceeded means the body raised nothing.
	OutcomeSucceeded Outcome = iota
	// OutcomeAbsorbed means a handler absorbed the body error.
	OutcomeAbsorbed
	// OutcomePropagated means every handler passed the error on.
	OutcomePropagated
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeAbsorbed:
		return "absorbed"
	case OutcomePropagated:
		return "propagated"
	default:
		return "unknown"
	}
}

// HandlingResult describes what the handler chain did with a body error.
type HandlingResult struct {
	Outcome Outcome
	// Err is the error left after handling; nil unless propagated.
	Err error
	// HandledBy names the handler that absorbed the error or, when propagated,
	// the last handler that raised. Empty when no handler was consulted.
	HandledBy string
}

// HandleException offers err to handlers in order. A handler that returns nil
// absorbs it. A handler that returns an error, or panics, replaces the current
// error and the next handler is tried. Each handler is consulted at most once.
func HandleException(handlers []extension.ExceptionHandler, ec *extension.Context, err error) HandlingResult {
	if err == nil {
		return HandlingResult{Outcome: OutcomeSucceeded}
	}

	current := err
	var last string
	remaining := handlers
	for len(remaining) > 0 {
		h := remaining[0]
		remaining = remaining[1:]

		raised := failure.Capture(func() error {
			return h.HandleTestExecutionException(ec, current)
		})
		if raised == nil {
			return HandlingResult{Outcome: OutcomeAbsorbed, HandledBy: h.Name()}
		}
		current = raised
		last = h.Name()
	}

	return HandlingResult{Outcome: OutcomePropagated, Err: current, HandledBy: last}
}
