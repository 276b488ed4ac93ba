package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mrz1836/gobatch"
	"github.com/mrz1836/gobatch/cmd/gobatchctl/internal/tui"
	"github.com/mrz1836/gobatch/internal/ctxutil"
	"github.com/mrz1836/gobatch/internal/xerrors"
	"github.com/mrz1836/gobatch/specfile"
)

func newRunCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run <spec-file>",
		Short: "Build and run a declarative job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := ctxutil.Canceled(ctx); err != nil {
				return xerrors.Wrap(err, "run")
			}

			spec, err := specfile.LoadFile(args[0])
			if err != nil {
				return xerrors.Wrap(err, "run")
			}

			logger := Logger()
			opts := []gobatch.JobOption{gobatch.WithLogger(logger)}

			var exec *gobatch.JobExecution
			if watch {
				exec, err = runWatched(ctx, spec, opts)
			} else {
				exec, err = runPlain(ctx, spec, opts)
			}
			if err != nil {
				return xerrors.Wrap(err, "run")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "job %s: %s\n", exec.ID, exec.Status)
			for _, se := range exec.Steps {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %s (read=%d write=%d)\n",
					se.Name(), se.Status(), se.ReadCount(), se.WriteCount())
			}

			if exec.Status == gobatch.StatusFailed {
				return fmt.Errorf("run: job %s failed", exec.ID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "show a live progress view while the job runs")
	return cmd
}

func runPlain(ctx context.Context, spec *specfile.JobSpec, opts []gobatch.JobOption) (*gobatch.JobExecution, error) {
	job, err := specfile.BuildJob(spec, newRegistry(), opts...)
	if err != nil {
		return nil, err
	}
	return job.Run(ctx), nil
}

func runWatched(ctx context.Context, spec *specfile.JobSpec, opts []gobatch.JobOption) (*gobatch.JobExecution, error) {
	events := make(chan gobatch.ProgressEvent, len(spec.Steps)*2+1) //nolint:mnd // start+complete per step, plus headroom
	done := make(chan *gobatch.JobExecution, 1)

	opts = append(opts, gobatch.WithProgressCallback(func(evt gobatch.ProgressEvent) {
		events <- evt
	}))

	job, err := specfile.BuildJob(spec, newRegistry(), opts...)
	if err != nil {
		close(events)
		return nil, err
	}

	go func() {
		exec := job.Run(ctx)
		close(events)
		done <- exec
	}()

	model := tui.New(events, done)
	program := tea.NewProgram(model)
	finalModel, err := program.Run()
	if err != nil {
		return nil, xerrors.Wrap(err, "watch")
	}

	exec := finalModel.(tui.Model).Result() //nolint:errcheck,forcetypeassert // program.Run always returns our own Model
	if exec == nil {
		exec = <-done
	}
	return exec, nil
}
