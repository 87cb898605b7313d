package testing

// ============================================================================
// Configuration Fixtures
// ============================================================================

// SampleConfigYAML returns a complete, valid configuration file.
func SampleConfigYAML() string {
	return `log_level: debug
no_color: true
invocation_timeout: 2s
teardown_policy: nested
fail_fast: true
deactivate_conditions:
  - os.*
parameters:
  env: ci
  region: eu-west-1
`
}

// InvalidConfigYAML returns a configuration file that parses but fails validation.
func InvalidConfigYAML() string {
	return `log_level: loud
teardown_policy: sometimes
invocation_timeout: -1s
`
}

// ============================================================================
// Scenario Fixtures
// ============================================================================

// SampleScenarioYAML returns a scenario exercising every lifecycle phase: one
// passing unit, one skipped unit, one unit whose body failure is absorbed and
// one unit failing in setup and teardown.
func SampleScenarioYAML() string {
	return `name: sample
tags: [smoke]
extensions:
  - name: db
    before_each: ok
    after_each: ok
  - name: timer
    before_test_execution: ok
    after_test_execution: ok
units:
  - id: passes
    body: ok
  - id: skipped
    body: ok
    extensions:
      - name: linux-only
        condition:
          disable: not on this platform
  - id: absorbed
    body:
      fail: flaky network
    extensions:
      - name: retry-later
        handler: absorb
  - id: broken
    tags: [regression]
    body: ok
    extensions:
      - name: broken-setup
        before_each:
          fail: cannot connect
        after_each:
          fail: cannot disconnect
`
}

// ParameterizedScenarioYAML returns a scenario whose unit body takes a resolved parameter.
func ParameterizedScenarioYAML() string {
	return `name: parameterized
extensions:
  - name: numbers
    resolver:
      values:
        int: "42"
units:
  - id: adds
    params:
      - name: n
        type: int
    body:
      expect_args: ["42"]
`
}
