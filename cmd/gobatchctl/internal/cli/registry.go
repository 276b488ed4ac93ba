package cli

import (
	"context"
	"strings"

	"github.com/mrz1836/gobatch"
	"github.com/mrz1836/gobatch/adapter/memory"
	"github.com/mrz1836/gobatch/specfile"
)

// lineParams configures the built-in "lines" step kind: a reader over
// the in-memory list of strings in the "items" Params field, and a
// writer that collects the (optionally uppercased) results. It exists so
// gobatchctl has something runnable out of the box without requiring a
// real external adapter — see DESIGN.md for why this module ships no
// concrete I/O adapters beyond adapter/memory.
type lineParams struct {
	Items     []string `mapstructure:"items"`
	Uppercase bool     `mapstructure:"uppercase"`
}

func linesStepBuilder(spec specfile.StepSpec) (gobatch.Step, error) {
	var params lineParams
	if err := specfile.DecodeParams(spec.Reader.Params, &params); err != nil {
		return gobatch.Step{}, err
	}

	reader := memory.NewSliceReader(params.Items)
	writer := memory.NewSliceWriter[string]()

	processor := gobatch.Identity[string]()
	if params.Uppercase {
		processor = gobatch.ProcessorFunc[string, string](func(_ context.Context, line string) (string, error) {
			return strings.ToUpper(line), nil
		})
	}

	commitInterval := spec.CommitInterval
	if commitInterval < 1 {
		commitInterval = 1
	}

	return gobatch.NewChunkStep(spec.Name, reader, processor, writer, gobatch.ChunkConfig{
		CommitInterval: commitInterval,
		SkipLimit:      spec.SkipLimit,
		SkipPolicy: func() *gobatch.SkipPolicy {
			p := specfile.SkipPolicyFromKinds(spec.SkipKinds)
			return &p
		}(),
	})
}

// newRegistry builds the specfile.Registry gobatchctl ships by default.
func newRegistry() *specfile.Registry {
	reg := specfile.NewRegistry()
	reg.Register("lines", linesStepBuilder)
	return reg
}
