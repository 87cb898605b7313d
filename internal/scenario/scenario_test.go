package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tungetti/gauntlet/internal/engine"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/failure"
	"github.com/tungetti/gauntlet/internal/runner"
	testutil "github.com/tungetti/gauntlet/internal/testing"
)

func runPlan(t *testing.T, plan *Plan) runner.Report {
	t.Helper()
	root := engine.NewRootContext(engine.WithRegistry(plan.Registry))
	return runner.New(engine.New()).Run(context.Background(), root, plan.Units)
}

func TestLoad_SampleScenario(t *testing.T) {
	path := testutil.TempFile(t, "sample.yaml", testutil.SampleScenarioYAML())

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", s.Name)
	require.Len(t, s.Units, 4)
	require.Len(t, s.Extensions, 2)

	db := s.Extensions[0]
	require.NotNil(t, db.BeforeEach)
	assert.Equal(t, ActionOK, db.BeforeEach.Kind)
	assert.Nil(t, db.Handler)

	absorbed := s.Units[2]
	assert.Equal(t, ActionFail, absorbed.Body.Kind)
	assert.Equal(t, "flaky network", absorbed.Body.Message)
	require.NotNil(t, absorbed.Extensions[0].Handler)
	assert.Equal(t, HandlerAbsorb, absorbed.Extensions[0].Handler.Mode)

	skipped := s.Units[1].Extensions[0]
	require.NotNil(t, skipped.Condition)
	assert.Equal(t, "not on this platform", skipped.Condition.Disable)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/scenario.yaml")
	testutil.AssertErrorCode(t, err, errors.Scenario)
}

func TestBuild_SampleScenario(t *testing.T) {
	s, err := Parse([]byte(testutil.SampleScenarioYAML()))
	require.NoError(t, err)

	plan, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Registry.Len())
	require.Len(t, plan.Units, 4)

	broken := plan.Units[3]
	assert.Equal(t, []string{"regression", "smoke"}, broken.Tags())
	assert.Equal(t, "broken()", broken.DisplayName())

	report := runPlan(t, plan)
	require.Len(t, report.Results, 4)

	assert.Equal(t, engine.StatusSuccessful, report.Results[0].Status)
	assert.Equal(t, engine.StatusSkipped, report.Results[1].Status)
	assert.Equal(t, "not on this platform", report.Results[1].Reason)
	assert.Equal(t, engine.StatusSuccessful, report.Results[2].Status)
	assert.Equal(t, engine.OutcomeAbsorbed, report.Results[2].Handling.Outcome)

	res := report.Results[3]
	assert.Equal(t, engine.StatusFailed, res.Status)
	testutil.AssertFailurePhases(t, res.Failures,
		failure.PhaseBeforeEach, failure.PhaseAfterEach)
	testutil.AssertErrorContains(t, res.Err, "cannot connect")
	testutil.AssertErrorContains(t, res.Err, "cannot disconnect")
	testutil.AssertSuppressed(t, res.Err, 1)

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
}

func TestBuild_TraceOrder(t *testing.T) {
	s, err := Parse([]byte(testutil.SampleScenarioYAML()))
	require.NoError(t, err)
	s.Units = s.Units[:1]

	plan, err := s.Build()
	require.NoError(t, err)
	runPlan(t, plan)

	assert.Equal(t, []string{
		"db.before_each",
		"timer.before_test_execution",
		"passes.body",
		"timer.after_test_execution",
		"db.after_each",
	}, plan.Trace.Entries())
}

func TestBuild_ParameterizedScenario(t *testing.T) {
	s, err := Parse([]byte(testutil.ParameterizedScenarioYAML()))
	require.NoError(t, err)

	plan, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, "adds(int)", plan.Units[0].DisplayName())

	report := runPlan(t, plan)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].IsSuccess(), "unexpected error: %v", report.Results[0].Err)
	assert.Equal(t, []string{"numbers.resolve", "adds.body"}, plan.Trace.Entries())
}

func TestBuild_ReplaceHandlerAndPublish(t *testing.T) {
	doc := `name: replace
units:
  - id: u1
    body:
      fail: original
    extensions:
      - name: reporter
        before_each:
          publish:
            stage: setup
      - name: wrapper
        handler:
          replace: wrapped
`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	plan, err := s.Build()
	require.NoError(t, err)

	listener := runner.NewRecordingListener()
	root := engine.NewRootContext(engine.WithRegistry(plan.Registry))
	report := runner.New(engine.New(), runner.WithListeners(listener)).
		Run(context.Background(), root, plan.Units)

	res := report.Results[0]
	assert.Equal(t, engine.StatusFailed, res.Status)
	assert.Equal(t, engine.OutcomePropagated, res.Handling.Outcome)
	testutil.AssertErrorContains(t, res.Err, "wrapped: original")

	var reported []runner.Event
	for _, e := range listener.Events() {
		if e.Kind == "reported" {
			reported = append(reported, e)
		}
	}
	require.Len(t, reported, 1)
	assert.Equal(t, "setup", reported[0].Entry["stage"])
}

func TestBuild_PanicActions(t *testing.T) {
	doc := `name: panics
units:
  - id: u1
    body:
      panic: body exploded
    extensions:
      - name: cleanup
        after_each:
          panic: cleanup exploded
`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	plan, err := s.Build()
	require.NoError(t, err)

	res := runPlan(t, plan).Results[0]
	assert.Equal(t, engine.StatusFailed, res.Status)
	testutil.AssertFailurePhases(t, res.Failures, failure.PhaseTestExecution, failure.PhaseAfterEach)

	var pe *failure.PanicError
	assert.ErrorAs(t, res.Failures[0].Err, &pe)
}

func TestBuild_ExpectArgsMismatch(t *testing.T) {
	doc := `name: args
extensions:
  - name: numbers
    resolver:
      values:
        int: "7"
units:
  - id: u1
    params:
      - name: n
        type: int
    body:
      expect_args: ["8"]
`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	plan, err := s.Build()
	require.NoError(t, err)

	res := runPlan(t, plan).Results[0]
	assert.Equal(t, engine.StatusFailed, res.Status)
	testutil.AssertErrorContains(t, res.Err, `got "7", want "8"`)
}

func TestBuild_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		contains string
	}{
		{
			name: "publish in body",
			scenario: Scenario{Name: "s", Units: []Unit{
				{ID: "u1", Body: Action{Kind: ActionPublish, Entry: map[string]string{"k": "v"}}},
			}},
			contains: "publish is not allowed",
		},
		{
			name: "expect_args in extension",
			scenario: Scenario{Name: "s", Units: []Unit{
				{ID: "u1", Body: Action{Kind: ActionOK}, Extensions: []Extension{
					{Name: "e", BeforeEach: &Action{Kind: ActionExpectArgs, Args: []string{}}},
				}},
			}},
			contains: "expect_args is only allowed in a unit body",
		},
		{
			name: "argument count",
			scenario: Scenario{Name: "s", Units: []Unit{
				{ID: "u1", Body: Action{Kind: ActionExpectArgs, Args: []string{"1"}}},
			}},
			contains: "body expects 1 arguments but 0 parameters are declared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.scenario.Build()
			testutil.AssertErrorCode(t, err, errors.Scenario)
			testutil.AssertErrorContains(t, err, tt.contains)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		contains string
	}{
		{"empty", "", "scenario is empty"},
		{"not yaml", "name: [unclosed", "failed to parse scenario"},
		{"unknown key", "name: s\nfoo: bar\nunits:\n  - id: u1\n    body: ok\n", "field foo not found"},
		{"unknown scalar action", "name: s\nunits:\n  - id: u1\n    body: maybe\n", `unknown action "maybe"`},
		{"unknown mapping action", "name: s\nunits:\n  - id: u1\n    body:\n      explode: now\n", `unknown action "explode"`},
		{"two keys", "name: s\nunits:\n  - id: u1\n    body:\n      fail: a\n      panic: b\n", "single-key mapping"},
		{"replace scalar", "name: s\nunits:\n  - id: u1\n    body: ok\n    extensions:\n      - name: h\n        handler: replace\n", "replace requires a message"},
		{"unknown handler", "name: s\nunits:\n  - id: u1\n    body: ok\n    extensions:\n      - name: h\n        handler: {swallow: x}\n", `unknown handler "swallow"`},
		{"no name", "units:\n  - id: u1\n    body: ok\n", "name is required"},
		{"no units", "name: s\n", "units is required"},
		{"duplicate ids", "name: s\nunits:\n  - id: u1\n    body: ok\n  - id: u1\n    body: ok\n", "units must have unique id values"},
		{"bad id", "name: s\nunits:\n  - id: \"-bad\"\n    body: ok\n", "is not a valid unit id"},
		{"missing body", "name: s\nunits:\n  - id: u1\n", "units[0].body.kind is required"},
		{"empty fail message", "name: s\nunits:\n  - id: u1\n    body: {fail: \"\"}\n", "units[0].body.message is required"},
		{"bad handler mode", "name: s\nunits:\n  - id: u1\n    body: ok\n    extensions:\n      - name: h\n        handler: swallow\n", "must be one of: absorb rethrow replace"},
		{"empty condition", "name: s\nunits:\n  - id: u1\n    body: ok\n    extensions:\n      - name: c\n        condition: {}\n", "condition.disable is required"},
		{"duplicate extensions", "name: s\nextensions:\n  - name: a\n  - name: a\nunits:\n  - id: u1\n    body: ok\n", "extensions must have unique name values"},
		{"param without type", "name: s\nunits:\n  - id: u1\n    params:\n      - name: n\n    body: ok\n", "units[0].params[0].type is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			testutil.AssertErrorCode(t, err, errors.Scenario)
			testutil.AssertErrorContains(t, err, tt.contains)
		})
	}
}

func TestValidate_FieldPathsUseYAMLKeys(t *testing.T) {
	s := &Scenario{
		Name: "paths",
		Units: []Unit{{
			ID:   "u1",
			Body: Action{Kind: ActionOK},
			Extensions: []Extension{{
				Name:             "cb",
				BeforeEachMethod: &Action{Kind: ActionFail},
				Handler:          &Handler{Mode: "swallow"},
				Resolver:         &Resolver{},
			}},
		}},
	}

	err := Validate(s)
	testutil.AssertErrorCode(t, err, errors.Scenario)
	testutil.AssertErrorContains(t, err, "units[0].extensions[0].before_each_method.message is required")
	testutil.AssertErrorContains(t, err, "units[0].extensions[0].handler.mode must be one of")
	testutil.AssertErrorContains(t, err, "units[0].extensions[0].resolver.values is required")
	assert.NotContains(t, err.Error(), "Scenario.")
	assert.NotContains(t, err.Error(), "BeforeEachMethod")
}

func TestValidate_Nil(t *testing.T) {
	testutil.AssertErrorCode(t, Validate(nil), errors.Scenario)
}

func TestScripted_Defaults(t *testing.T) {
	s := &scripted{def: Extension{Name: "plain"}, trace: &Trace{}}
	ec := extension.NewContext()

	assert.NoError(t, s.BeforeEach(ec))
	assert.NoError(t, s.AfterEach(ec))

	boom := errors.New(errors.Unknown, "boom")
	assert.Same(t, boom, s.HandleTestExecutionException(ec, boom))

	res, err := s.EvaluateExecutionCondition(ec)
	require.NoError(t, err)
	assert.False(t, res.Disabled)

	assert.False(t, s.SupportsParameter(extension.Parameter{Type: "int"}, ec))
	assert.Empty(t, s.trace.Entries())
}

func TestScripted_Condition(t *testing.T) {
	enabled := &scripted{def: Extension{Name: "c", Condition: &Condition{Enable: "fine"}}, trace: &Trace{}}
	res, err := enabled.EvaluateExecutionCondition(extension.NewContext())
	require.NoError(t, err)
	assert.False(t, res.Disabled)
	assert.Equal(t, "fine", res.Reason)

	both := &scripted{def: Extension{Name: "c", Condition: &Condition{Enable: "fine", Disable: "no"}}, trace: &Trace{}}
	res, err = both.EvaluateExecutionCondition(extension.NewContext())
	require.NoError(t, err)
	assert.True(t, res.Disabled)
	assert.Equal(t, "no", res.Reason)
}
