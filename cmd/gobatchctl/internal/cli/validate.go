package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/mrz1836/gobatch/internal/xerrors"
	"github.com/mrz1836/gobatch/specfile"
)

var (
	glamourRenderer     *glamour.TermRenderer //nolint:gochecknoglobals // cached renderer, built once
	glamourRendererOnce sync.Once             //nolint:gochecknoglobals // protects glamourRenderer init
)

func getGlamourRenderer() *glamour.TermRenderer {
	glamourRendererOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			glamourRenderer = r
		}
	})
	return glamourRenderer
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec-file>",
		Short: "Load a job spec and print a human-readable summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := specfile.LoadFile(args[0])
			if err != nil {
				return xerrors.Wrap(err, "validate")
			}

			reg := newRegistry()
			if _, err := specfile.BuildJob(spec, reg); err != nil {
				return xerrors.Wrap(err, "validate")
			}

			fmt.Fprint(cmd.OutOrStdout(), renderSummary(spec))
			return nil
		},
	}
}

func renderSummary(spec *specfile.JobSpec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", spec.Name)
	fmt.Fprintf(&sb, "%d step(s):\n\n", len(spec.Steps))
	for i, step := range spec.Steps {
		fmt.Fprintf(&sb, "%d. **%s** (`%s`)", i+1, step.Name, step.Type)
		if step.Type == "chunk" || step.CommitInterval > 0 {
			fmt.Fprintf(&sb, " — commit interval %d, skip limit %d", step.CommitInterval, step.SkipLimit)
		}
		sb.WriteString("\n")
	}

	if renderer := getGlamourRenderer(); renderer != nil {
		if rendered, err := renderer.Render(sb.String()); err == nil {
			return rendered
		}
	}
	return sb.String()
}
