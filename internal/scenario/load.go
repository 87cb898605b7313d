package scenario

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tungetti/gauntlet/internal/errors"
)

// Load reads, parses and validates the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.Scenario, "failed to read scenario file", err).
			WithOp("scenario.Load")
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.New(errors.Scenario, "scenario is empty").WithOp("scenario.Parse")
		}
		return nil, errors.Wrap(errors.Scenario, "failed to parse scenario", err).
			WithOp("scenario.Parse")
	}

	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
