package gobatch

import (
	"github.com/rs/zerolog"

	"github.com/mrz1836/gobatch/internal/clock"
)

// jobConfig holds the cross-cutting collaborators a Job.Run uses,
// assembled from JobOption values passed to JobBuilder.Build. Grounded
// on atlas's EngineConfig/EngineOption pattern (internal/task/engine.go).
type jobConfig struct {
	logger   zerolog.Logger
	metrics  Metrics
	progress ProgressCallback
	clock    clock.Clock
}

func defaultJobConfig() jobConfig {
	return jobConfig{
		logger:  zerolog.Nop(),
		metrics: NoopMetrics{},
		clock:   clock.RealClock{},
	}
}

// JobOption configures a Job at build time.
type JobOption func(*jobConfig)

// WithLogger attaches a zerolog.Logger the engine uses for per-step
// lifecycle and skip logging. Without this option, logging is disabled.
func WithLogger(logger zerolog.Logger) JobOption {
	return func(c *jobConfig) {
		c.logger = logger
	}
}

// WithMetrics attaches a Metrics collector. Without this option, metrics
// calls are no-ops.
func WithMetrics(m Metrics) JobOption {
	return func(c *jobConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithProgressCallback attaches a callback invoked before and after each
// step. Without this option, no progress events are emitted.
func WithProgressCallback(cb ProgressCallback) JobOption {
	return func(c *jobConfig) {
		c.progress = cb
	}
}

// withClock overrides the clock used for StepExecution/JobExecution
// timestamps. Unexported: it is a testing seam for this module's own
// _test.go files, not a public guarantee, since internal/clock.Clock is
// not part of the importable API surface.
func withClock(c clock.Clock) JobOption {
	return func(cfg *jobConfig) {
		cfg.clock = c
	}
}
