package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseUnknown, "unknown"},
		{PhaseBeforeEach, "before_each"},
		{PhaseBeforeEachMethod, "before_each_method"},
		{PhaseBeforeTestExecution, "before_test_execution"},
		{PhaseTestExecution, "test_execution"},
		{PhaseAfterTestExecution, "after_test_execution"},
		{PhaseAfterEachMethod, "after_each_method"},
		{PhaseAfterEach, "after_each"},
		{Phase(42), "phase(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.phase.String())
		})
	}
}

func TestPhase_Classification(t *testing.T) {
	for _, p := range Phases() {
		switch p {
		case PhaseBeforeEach, PhaseBeforeEachMethod, PhaseBeforeTestExecution:
			assert.True(t, p.IsSetup(), p.String())
			assert.False(t, p.IsTeardown(), p.String())
		case PhaseTestExecution:
			assert.False(t, p.IsSetup())
			assert.False(t, p.IsTeardown())
		default:
			assert.True(t, p.IsTeardown(), p.String())
			assert.False(t, p.IsSetup(), p.String())
		}
	}
	assert.Len(t, Phases(), 7)
}

func TestCollector_Empty(t *testing.T) {
	c := NewCollector()

	c.Execute(PhaseBeforeEach, "ok", func() error { return nil })

	assert.True(t, c.IsEmpty())
	assert.False(t, c.IsNotEmpty())
	assert.Zero(t, c.Len())
	assert.NoError(t, c.AssertEmpty())
}

func TestCollector_SingleFailure(t *testing.T) {
	c := NewCollector()
	boom := errors.New("boom")

	c.Execute(PhaseTestExecution, "body", func() error { return boom })

	require.True(t, c.IsNotEmpty())
	err := c.AssertEmpty()
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, PhaseTestExecution, f.Phase)
	assert.Equal(t, "body", f.Source)
	assert.Same(t, boom, f.Err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, "test_execution [body]: boom", err.Error())
}

func TestCollector_MultipleFailures(t *testing.T) {
	c := NewCollector()
	first := errors.New("first")
	second := errors.New("second")
	third := errors.New("third")

	c.Execute(PhaseAfterTestExecution, "a", func() error { return first })
	c.Execute(PhaseAfterEachMethod, "b", func() error { return second })
	c.Execute(PhaseAfterEach, "", func() error { return third })

	err := c.AssertEmpty()

	var agg *AggregateError
	require.True(t, errors.As(err, &agg))
	assert.Same(t, first, agg.Primary().Err)
	require.Len(t, agg.Suppressed(), 2)
	assert.Same(t, second, agg.Suppressed()[0].Err)
	assert.Same(t, third, agg.Suppressed()[1].Err)
	assert.Len(t, agg.Failures(), 3)

	assert.True(t, errors.Is(err, first))
	assert.True(t, errors.Is(err, second))
	assert.True(t, errors.Is(err, third))
	assert.Contains(t, err.Error(), "2 suppressed")
	assert.Contains(t, err.Error(), "after_each: third")
}

func TestCollector_PanicIsCollected(t *testing.T) {
	c := NewCollector()

	assert.NotPanics(t, func() {
		c.Execute(PhaseBeforeEach, "panicky", func() error { panic("kaboom") })
	})

	err := c.AssertEmpty()
	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "kaboom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
	assert.Contains(t, err.Error(), "panic: kaboom")
}

func TestCollector_ContinuesAfterFailure(t *testing.T) {
	c := NewCollector()
	calls := 0

	for i := 0; i < 3; i++ {
		c.Execute(PhaseAfterEach, fmt.Sprintf("cb%d", i), func() error {
			calls++
			return fmt.Errorf("failure %d", calls)
		})
	}

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, c.Len())
}

func TestCollector_FailuresIsCopy(t *testing.T) {
	c := NewCollector()
	c.Add(PhaseBeforeEach, "x", errors.New("x"))
	c.Add(PhaseBeforeEach, "nil", nil)

	failures := c.Failures()
	failures[0] = nil

	assert.Equal(t, 1, c.Len())
	assert.NotNil(t, c.Failures()[0])
}

func TestPanicError_UnwrapsErrorValue(t *testing.T) {
	cause := errors.New("wrapped")
	err := Capture(func() error { panic(cause) })

	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, (&PanicError{Value: 1}).Unwrap())
}
