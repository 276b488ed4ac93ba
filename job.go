package gobatch

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobBuilder assembles an ordered, non-empty list of steps into a Job.
// Grounded on atlas's NewEngine/EngineOption construction style
// (internal/task/engine.go), adapted to spec.md §6's "Job builder"
// surface: Start(step) then zero or more Next(step...).
type JobBuilder struct {
	steps []Step
	err   error
}

// NewJobBuilder creates an empty JobBuilder.
func NewJobBuilder() *JobBuilder {
	return &JobBuilder{}
}

// Start sets the first step of the job. Calling Start more than once
// replaces the first step; prefer a fresh JobBuilder per job.
func (b *JobBuilder) Start(step Step) *JobBuilder {
	if len(b.steps) == 0 {
		b.steps = append(b.steps, step)
		return b
	}
	b.steps[0] = step
	return b
}

// Next appends one or more subsequent steps, in the order given.
func (b *JobBuilder) Next(steps ...Step) *JobBuilder {
	b.steps = append(b.steps, steps...)
	return b
}

// Build validates the assembled step list and returns a runnable Job.
// Validation failures (empty step list, duplicate step names) surface as
// ConfigurationError, matching the builder-validation Open Question
// decided in spec.md §9: eagerly, at build time, never at run time.
func (b *JobBuilder) Build(opts ...JobOption) (*Job, error) {
	if len(b.steps) == 0 {
		return nil, newBatchError(KindConfiguration, "", -1, errEmptyJob)
	}

	seen := make(map[string]bool, len(b.steps))
	for _, s := range b.steps {
		if s.name == "" {
			return nil, newBatchError(KindConfiguration, "", -1, errEmptyStepName)
		}
		if seen[s.name] {
			return nil, newBatchError(KindConfiguration, s.name, -1, errDuplicateStep)
		}
		seen[s.name] = true
	}

	cfg := defaultJobConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	steps := make([]Step, len(b.steps))
	copy(steps, b.steps)

	return &Job{steps: steps, cfg: cfg}, nil
}

// Job runs its steps strictly in order and aggregates their execution
// records. Build a Job with JobBuilder; a Job is safe to Run multiple
// times (each call produces an independent JobExecution).
type Job struct {
	steps []Step
	cfg   jobConfig
}

// Run executes every step in declared order, stopping at the first step
// that terminates Failed (spec.md §4.7). Run never panics and never
// returns a bare error: the returned JobExecution's Status field is the
// only success/failure signal, and steps after a failure are simply
// absent from JobExecution.Steps (spec.md §8.7).
func (j *Job) Run(ctx context.Context) *JobExecution {
	jobID := uuid.NewString()
	jobStart := time.Now()

	j.cfg.logger.Info().Str("job_id", jobID).Int("step_count", len(j.steps)).Msg("job started")
	j.cfg.metrics.JobStarted(jobID)

	exec := &JobExecution{ID: jobID, Status: StatusStarted}

	for i, step := range j.steps {
		env := runEnv{
			clock:    j.cfg.clock,
			logger:   j.cfg.logger,
			metrics:  j.cfg.metrics,
			progress: j.cfg.progress,
			jobID:    jobID,
			index:    i,
			total:    len(j.steps),
		}

		se := newStepExecution(step.name)
		exec.Steps = append(exec.Steps, se)

		j.emitProgress(env, "start", se, 0)

		stepStart := time.Now()
		step.run(ctx, env, se)
		stepDuration := time.Since(stepStart)

		j.cfg.metrics.StepExecuted(jobID, step.name, stepDuration, se.Status() == StatusCompleted)
		j.emitProgress(env, "complete", se, stepDuration)

		if se.Status() == StatusFailed {
			exec.Status = StatusFailed
			j.cfg.logger.Error().Str("job_id", jobID).Str("step", step.name).Msg("job failed")
			j.cfg.metrics.JobCompleted(jobID, time.Since(jobStart), StatusFailed)
			return exec
		}
	}

	exec.Status = StatusCompleted
	j.cfg.logger.Info().Str("job_id", jobID).Msg("job completed")
	j.cfg.metrics.JobCompleted(jobID, time.Since(jobStart), StatusCompleted)
	return exec
}

func (j *Job) emitProgress(env runEnv, eventType string, se *StepExecution, duration time.Duration) {
	if env.progress == nil {
		return
	}
	var status Status
	if eventType == "complete" {
		status = se.Status()
	}
	env.progress(ProgressEvent{
		Type:       eventType,
		JobID:      env.jobID,
		StepIndex:  env.index,
		TotalSteps: env.total,
		StepName:   se.Name(),
		Status:     status,
		DurationMs: duration.Milliseconds(),
	})
}
