// Package specfile loads a job declaratively from YAML: a JobSpec names
// an ordered list of steps, each pointing at a registered step kind and
// carrying free-form parameters for that kind's reader/processor/writer
// or tasklet. The engine package itself knows nothing about specfile or
// any concrete adapter — specfile only decodes data and looks up
// previously registered StepBuilder functions by name.
package specfile

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/gobatch/internal/xerrors"
)

// AdapterSpec names one collaborator (reader, processor, writer, or
// tasklet) by kind, plus whatever free-form parameters that kind needs.
// Params is decoded with DecodeParams into a concrete struct by the
// StepBuilder registered for the enclosing step's Type; Kind itself is
// not looked up by the Registry.
type AdapterSpec struct {
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params,omitempty"`
}

// StepSpec is the declarative description of one job step. Type selects
// which registered StepBuilder assembles the runnable gobatch.Step; which
// of the remaining fields are used is up to that StepBuilder.
type StepSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // name a StepBuilder was registered under, e.g. "lines"

	CommitInterval int      `yaml:"commit_interval,omitempty"`
	SkipLimit      int      `yaml:"skip_limit,omitempty"`
	SkipKinds      []string `yaml:"skip_kinds,omitempty"`

	Reader    AdapterSpec  `yaml:"reader,omitempty"`
	Processor *AdapterSpec `yaml:"processor,omitempty"`
	Writer    AdapterSpec  `yaml:"writer,omitempty"`
	Tasklet   AdapterSpec  `yaml:"tasklet,omitempty"`
}

// JobSpec is the top-level declarative job description: a name for
// logging purposes and an ordered list of steps.
type JobSpec struct {
	Name  string     `yaml:"name"`
	Steps []StepSpec `yaml:"steps"`
}

// Load parses raw YAML bytes into a JobSpec. It performs no semantic
// validation beyond what yaml.v3 itself enforces (well-formed documents,
// type-compatible scalars); BuildJob is where an unknown step Type
// surfaces as an error. AdapterSpec.Kind is not checked by BuildJob.
func Load(data []byte) (*JobSpec, error) {
	var spec JobSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, xerrors.Wrap(err, "specfile: parse")
	}
	return &spec, nil
}

// LoadFile reads path and parses it as a JobSpec.
func LoadFile(path string) (*JobSpec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from an operator-supplied CLI flag
	if err != nil {
		return nil, xerrors.Wrapf(err, "specfile: read %s", path)
	}
	return Load(data)
}
