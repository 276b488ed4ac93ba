package gobatch

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mrz1836/gobatch/internal/clock"
)

// Step is a declared unit of job work: either chunk-oriented (reader,
// optional processor, writer) or tasklet-based. Steps are constructed
// with NewChunkStep or NewTaskletStep and composed into a Job with
// JobBuilder. A Step value carries its own item types internally (via a
// closure captured at construction time) so a JobBuilder can hold a
// heterogeneous, ordered list of steps without the Job itself being
// generic.
type Step struct {
	name string
	run  func(ctx context.Context, env runEnv, se *StepExecution)
}

// Name returns the step's configured name.
func (s Step) Name() string { return s.name }

// runEnv carries the cross-cutting, job-level collaborators (clock,
// logger, metrics, progress callback) down into a step's driver. It is
// assembled once by Job.Run and threaded through every step.
type runEnv struct {
	clock    clock.Clock
	logger   zerolog.Logger
	metrics  Metrics
	progress ProgressCallback
	jobID    string
	index    int
	total    int
}

// Identity returns a Processor[I, I] that returns its input unchanged.
// Pass this to NewChunkStep when a step has no real transformation to
// apply — the spec's "if no processor is configured, I = O and items
// pass through unchanged" (spec.md §4.2), made explicit since Go's type
// system has no notion of an implicit, optional generic identity.
func Identity[I any]() Processor[I, I] {
	return ProcessorFunc[I, I](func(_ context.Context, item I) (I, error) {
		return item, nil
	})
}

// ChunkConfig holds the non-generic parameters of a chunk-oriented step:
// commit interval and skip tolerance. Reader/processor/writer are passed
// directly to NewChunkStep since Go cannot express them as fields of a
// struct independent of the step's own type parameters.
type ChunkConfig struct {
	// CommitInterval is the maximum number of output items delivered to
	// the writer per Write call. Required, must be >= 1.
	CommitInterval int

	// SkipLimit is the maximum cumulative read+process+write skip count
	// the step tolerates before failing. Zero means "fail on the first
	// skippable error" (spec.md §4.5).
	SkipLimit int

	// SkipPolicy decides which error kinds count toward SkipLimit. Nil
	// selects DefaultSkipPolicy().
	SkipPolicy *SkipPolicy
}

// NewChunkStep builds a chunk-oriented Step: read one input item at a
// time, process it, and accumulate output items into a buffer of at most
// cfg.CommitInterval before handing the buffer to writer.Write as one
// commit. See runChunkStep for the exact fill/commit algorithm.
//
// Validation errors (empty name, CommitInterval < 1, nil reader/writer,
// negative SkipLimit) are returned immediately as ConfigurationError and
// never surface at run time, per the Open Question decided in spec.md §9.
func NewChunkStep[I, O any](name string, reader Reader[I], processor Processor[I, O], writer Writer[O], cfg ChunkConfig) (Step, error) {
	if name == "" {
		return Step{}, newBatchError(KindConfiguration, name, -1, errEmptyStepName)
	}
	if cfg.CommitInterval < 1 {
		return Step{}, newBatchError(KindConfiguration, name, -1, errCommitInterval)
	}
	if cfg.SkipLimit < 0 {
		return Step{}, newBatchError(KindConfiguration, name, -1, errNegativeSkipLimit)
	}
	if reader == nil {
		return Step{}, newBatchError(KindConfiguration, name, -1, errNilReader)
	}
	if processor == nil {
		return Step{}, newBatchError(KindConfiguration, name, -1, errNilProcessor)
	}
	if writer == nil {
		return Step{}, newBatchError(KindConfiguration, name, -1, errNilWriter)
	}

	policy := DefaultSkipPolicy()
	if cfg.SkipPolicy != nil {
		policy = *cfg.SkipPolicy
	}

	return Step{
		name: name,
		run: func(ctx context.Context, env runEnv, se *StepExecution) {
			runChunkStep(ctx, env, se, reader, processor, writer, cfg.CommitInterval, cfg.SkipLimit, policy)
		},
	}, nil
}

// NewTaskletStep builds a tasklet-based Step: the driver invokes
// tasklet.Execute in a loop while it returns Continuable. Tasklet steps
// do not participate in skip accounting (spec.md §4.6).
func NewTaskletStep(name string, tasklet Tasklet) (Step, error) {
	if name == "" {
		return Step{}, newBatchError(KindConfiguration, name, -1, errEmptyStepName)
	}
	if tasklet == nil {
		return Step{}, newBatchError(KindConfiguration, name, -1, errNilTasklet)
	}

	return Step{
		name: name,
		run: func(ctx context.Context, env runEnv, se *StepExecution) {
			runTaskletStep(ctx, env, se, tasklet)
		},
	}, nil
}

// runChunkStep implements spec.md §4.5 exactly: fill a buffer of up to
// commitInterval output items, commit it with one Write call, and repeat
// until the reader is exhausted and the final buffer (possibly empty)
// has been handled.
func runChunkStep[I, O any](
	ctx context.Context,
	env runEnv,
	se *StepExecution,
	reader Reader[I],
	processor Processor[I, O],
	writer Writer[O],
	commitInterval int,
	skipLimit int,
	policy SkipPolicy,
) {
	log := env.logger.With().Str("step", se.name).Str("job_id", env.jobID).Logger()
	log.Info().Int("commit_interval", commitInterval).Int("skip_limit", skipLimit).Msg("chunk step started")

	se.start(env.clock)

	if opener, ok := writer.(Opener); ok {
		if err := opener.Open(ctx); err != nil {
			log.Error().Err(err).Msg("writer open failed")
			failStep(env, se, newBatchError(KindLifecycle, se.name, -1, err))
			closeWriterBestEffort(ctx, log, se, writer)
			return
		}
	}

	// filtered counts items dropped via Filtered. They are recorded under
	// processSkipCount but added back onto the limit so they never consume
	// skip budget.
	filtered := 0

	for {
		buffer := make([]O, 0, commitInterval)
		eof := false

		for len(buffer) < commitInterval && !eof {
			item, ok, err := reader.Read(ctx)
			switch {
			case err != nil:
				se.incReadSkip(1)
				log.Debug().Err(err).Msg("read error")
				if failed := evaluateSkip(env, se, policy, KindRead, skipLimit+filtered, err); failed {
					closeWriterBestEffort(ctx, log, se, writer)
					return
				}
			case !ok:
				eof = true
			default:
				se.incRead(1)
				out, perr := processor.Process(ctx, item)
				switch {
				case perr != nil && IsFiltered(perr):
					se.incProcessSkip(1)
					filtered++
					log.Debug().Msg("item filtered")
				case perr != nil:
					se.incProcessSkip(1)
					log.Debug().Err(perr).Msg("process error")
					if failed := evaluateSkip(env, se, policy, KindProcess, skipLimit+filtered, perr); failed {
						closeWriterBestEffort(ctx, log, se, writer)
						return
					}
				default:
					buffer = append(buffer, out)
				}
			}
		}

		if len(buffer) > 0 {
			if err := writer.Write(ctx, buffer); err != nil {
				se.incWriteSkip(len(buffer))
				log.Warn().Err(err).Int("chunk_size", len(buffer)).Msg("write error, chunk skipped")
				if failed := evaluateSkip(env, se, policy, KindWrite, skipLimit+filtered, err); failed {
					closeWriterBestEffort(ctx, log, se, writer)
					return
				}
			} else {
				se.incWrite(len(buffer))
				log.Debug().Int("chunk_size", len(buffer)).Msg("chunk committed")
			}
		}

		if eof && len(buffer) == 0 {
			break
		}
		// eof with a non-empty final buffer: loop once more, which will
		// immediately observe eof with an empty buffer and terminate.
	}

	if flusher, ok := writer.(Flusher); ok {
		if err := flusher.Flush(ctx); err != nil {
			log.Error().Err(err).Msg("writer flush failed")
			failStep(env, se, newBatchError(KindLifecycle, se.name, se.ReadCount(), err))
			closeWriterBestEffort(ctx, log, se, writer)
			return
		}
	}

	if closer, ok := writer.(Closer); ok {
		if err := closer.Close(ctx); err != nil {
			log.Error().Err(err).Msg("writer close failed")
			failStep(env, se, newBatchError(KindLifecycle, se.name, se.ReadCount(), err))
			return
		}
	}

	se.finish(env.clock, StatusCompleted, nil)
	log.Info().
		Int("read_count", se.ReadCount()).
		Int("write_count", se.WriteCount()).
		Msg("chunk step completed")
}

// evaluateSkip records the skip-limit decision for a single failure:
// skippable under policy and within budget → continue; otherwise fail
// the step. Returns true if the step was failed.
func evaluateSkip(env runEnv, se *StepExecution, policy SkipPolicy, kind ErrorKind, limit int, cause error) bool {
	if policy.Allows(kind) && se.totalSkipsLocked() <= limit {
		return false
	}
	failStep(env, se, newBatchError(kind, se.name, se.ReadCount(), cause))
	return true
}

func failStep(env runEnv, se *StepExecution, cause error) {
	se.finish(env.clock, StatusFailed, cause)
	env.logger.Error().Str("step", se.name).Err(cause).Msg("step failed")
}

// closeWriterBestEffort invokes Close on writers that implement Closer
// after the step has already failed. Its own failure overrides LastError
// only when the previously recorded failure was itself a LifecycleError —
// see DESIGN.md. On the success path runChunkStep calls Close directly and
// a Close error fails the step.
func closeWriterBestEffort(ctx context.Context, log zerolog.Logger, se *StepExecution, writer any) {
	closer, ok := writer.(Closer)
	if !ok {
		return
	}
	if err := closer.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("writer close failed")
		se.overrideLastErrorIfLifecycle(err)
	}
}

// runTaskletStep implements spec.md §4.6: loop Execute until Finished or
// an error. No skip accounting applies.
func runTaskletStep(ctx context.Context, env runEnv, se *StepExecution, tasklet Tasklet) {
	log := env.logger.With().Str("step", se.name).Str("job_id", env.jobID).Logger()
	log.Info().Msg("tasklet step started")

	se.start(env.clock)

	for {
		status, err := tasklet.Execute(ctx, se.view())
		if err != nil {
			log.Error().Err(err).Msg("tasklet error")
			failStep(env, se, newBatchError(KindTasklet, se.name, -1, err))
			return
		}
		if status == Finished {
			break
		}
	}

	se.finish(env.clock, StatusCompleted, nil)
	log.Info().Msg("tasklet step completed")
}
