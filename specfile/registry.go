package specfile

import (
	"fmt"
	"sync"

	"github.com/mrz1836/gobatch"
	"github.com/mrz1836/gobatch/internal/xerrors"
)

// StepBuilder assembles a runnable gobatch.Step from a StepSpec. Callers
// register one StepBuilder per step Type (e.g. "csv-to-postgres",
// "dedupe-tasklet") — each builder already knows its own Reader/
// Processor/Writer or Tasklet item types, since Go generics cannot be
// resolved from a YAML string at decode time.
type StepBuilder func(spec StepSpec) (gobatch.Step, error)

// Registry maps step Type names to the StepBuilder that knows how to
// construct them. Thread-safe; a Registry is typically built once at
// program startup (see cmd/gobatchctl) and shared read-only afterward.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]StepBuilder
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]StepBuilder)}
}

// Register adds or replaces the StepBuilder for the given step Type.
func (r *Registry) Register(stepType string, builder StepBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[stepType] = builder
}

// Build looks up the StepBuilder for spec.Type and invokes it. Returns an
// error if no builder was registered for that type.
func (r *Registry) Build(spec StepSpec) (gobatch.Step, error) {
	r.mu.RLock()
	builder, ok := r.builders[spec.Type]
	r.mu.RUnlock()
	if !ok {
		return gobatch.Step{}, fmt.Errorf("specfile: no step builder registered for type %q", spec.Type)
	}
	return builder(spec)
}

// BuildJob assembles a runnable *gobatch.Job from a JobSpec, resolving
// each StepSpec through reg in declared order. The first step uses
// JobBuilder.Start; the rest use Next, matching the sequential,
// no-reordering semantics of the engine itself.
func BuildJob(spec *JobSpec, reg *Registry, opts ...gobatch.JobOption) (*gobatch.Job, error) {
	if len(spec.Steps) == 0 {
		return nil, fmt.Errorf("specfile: job %q declares no steps", spec.Name)
	}

	builder := gobatch.NewJobBuilder()
	for i, stepSpec := range spec.Steps {
		step, err := reg.Build(stepSpec)
		if err != nil {
			return nil, xerrors.Wrapf(err, "specfile: step %q", stepSpec.Name)
		}
		if i == 0 {
			builder.Start(step)
		} else {
			builder.Next(step)
		}
	}

	return builder.Build(opts...)
}

// SkipPolicyFromKinds converts the declarative SkipKinds strings (e.g.
// "read_error", "process_error", "write_error") into a gobatch.SkipPolicy.
// Unrecognized strings are ignored rather than rejected, since new
// ErrorKind values may be introduced without forcing every spec file to
// be rewritten.
func SkipPolicyFromKinds(kinds []string) gobatch.SkipPolicy {
	resolved := make([]gobatch.ErrorKind, 0, len(kinds))
	for _, k := range kinds {
		switch gobatch.ErrorKind(k) {
		case gobatch.KindRead, gobatch.KindProcess, gobatch.KindWrite:
			resolved = append(resolved, gobatch.ErrorKind(k))
		}
	}
	if len(resolved) == 0 {
		return gobatch.NoSkipPolicy()
	}
	return gobatch.NewSkipPolicy(resolved...)
}
