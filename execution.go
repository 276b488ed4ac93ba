package gobatch

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/gobatch/internal/clock"
)

// Status is the lifecycle state of a StepExecution or JobExecution.
type Status string

const (
	// StatusStarting is the transient state between creation and the
	// driver recording a start time. No caller observes this state
	// externally; it exists only to make the spec.md §3 transition
	// table explicit in code.
	StatusStarting Status = "starting"

	// StatusStarted indicates the step/job is actively running.
	StatusStarted Status = "started"

	// StatusCompleted is a terminal, successful state.
	StatusCompleted Status = "completed"

	// StatusFailed is a terminal, unsuccessful state.
	StatusFailed Status = "failed"
)

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// IsTerminal reports whether s is Completed or Failed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepExecution is the mutable per-run record for one step execution. It
// is created and mutated exclusively by that step's driver and is sealed
// (read-only) once Status.IsTerminal() is true. Counts are monotonically
// non-decreasing while the step is live.
type StepExecution struct {
	mu sync.RWMutex

	id     string
	name   string
	status Status

	startTime time.Time
	endTime   time.Time

	readCount         int
	writeCount        int
	readSkipCount     int
	processSkipCount  int
	writeSkipCount    int

	lastError LastError
}

func newStepExecution(name string) *StepExecution {
	return &StepExecution{
		id:     uuid.NewString(),
		name:   name,
		status: StatusStarting,
	}
}

// ID returns the step execution's stable identifier, minted once at
// creation, used to correlate log lines and progress events.
func (s *StepExecution) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Name returns the step's configured name.
func (s *StepExecution) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Status returns the current lifecycle status.
func (s *StepExecution) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// StartTime returns when the step transitioned to Started. Zero if not
// yet started.
func (s *StepExecution) StartTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startTime
}

// EndTime returns when the step reached a terminal status. Zero until
// then; set exactly once.
func (s *StepExecution) EndTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endTime
}

// ReadCount returns the number of items successfully read from the
// reader (including ones later filtered, skipped, or written).
func (s *StepExecution) ReadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readCount
}

// WriteCount returns the number of items successfully committed by the
// writer.
func (s *StepExecution) WriteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeCount
}

// ReadSkipCount returns the number of reader failures tolerated.
func (s *StepExecution) ReadSkipCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readSkipCount
}

// ProcessSkipCount returns the number of items dropped by the processor,
// whether filtered or tolerated as skips.
func (s *StepExecution) ProcessSkipCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processSkipCount
}

// WriteSkipCount returns the number of items discarded because their
// chunk's Write call failed.
func (s *StepExecution) WriteSkipCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeSkipCount
}

// LastError returns the structured failure recorded on a Failed step. It
// is the zero value for any other status.
func (s *StepExecution) LastError() LastError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// totalSkips returns the cumulative read+process+write skip count. It
// includes filtered items, since they are accounted under
// processSkipCount; runChunkStep raises the limit it compares this sum
// against by the number of filtered items, so they are never charged.
func (s *StepExecution) totalSkips() int {
	return s.readSkipCount + s.processSkipCount + s.writeSkipCount
}

func (s *StepExecution) view() StepExecutionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StepExecutionView{
		ID:               s.id,
		Name:             s.name,
		Status:           s.status,
		StartTime:        s.startTime,
		EndTime:          s.endTime,
		ReadCount:        s.readCount,
		WriteCount:       s.writeCount,
		ReadSkipCount:    s.readSkipCount,
		ProcessSkipCount: s.processSkipCount,
		WriteSkipCount:   s.writeSkipCount,
		LastError:        s.lastError,
	}
}

func (s *StepExecution) start(c clock.Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusStarted
	s.startTime = c.Now()
}

func (s *StepExecution) incRead(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCount += n
}

func (s *StepExecution) incWrite(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCount += n
}

func (s *StepExecution) incReadSkip(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readSkipCount += n
}

func (s *StepExecution) incProcessSkip(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processSkipCount += n
}

func (s *StepExecution) incWriteSkip(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeSkipCount += n
}

func (s *StepExecution) totalSkipsLocked() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalSkips()
}

// finish transitions the step to a terminal status. cause may be nil on
// success. If a terminal status has already been recorded this is a
// no-op, protecting the single-transition invariant in spec.md §3.
func (s *StepExecution) finish(c clock.Clock, status Status, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.IsTerminal() {
		return
	}
	s.status = status
	s.endTime = c.Now()
	if status == StatusFailed {
		s.lastError = lastErrorFrom(cause)
	}
}

// overrideLastErrorIfLifecycle replaces LastError with err's rendering
// only when the previously recorded error was itself a LifecycleError,
// per the close-on-failure policy decided in DESIGN.md.
func (s *StepExecution) overrideLastErrorIfLifecycle(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastError.Kind == KindLifecycle {
		s.lastError = lastErrorFrom(err)
	}
}

// StepExecutionView is a read-only snapshot of a StepExecution, safe to
// hand to collaborators (Tasklet.Execute, a ProgressCallback) that must
// not be able to mutate execution state out of band.
type StepExecutionView struct {
	ID               string
	Name             string
	Status           Status
	StartTime        time.Time
	EndTime          time.Time
	ReadCount        int
	WriteCount       int
	ReadSkipCount    int
	ProcessSkipCount int
	WriteSkipCount   int
	LastError        LastError
}

// JobExecution is the aggregate record of one job run: the ordered step
// executions it produced, plus a summary status. It is always returned
// by Job.Run, whether the job completed or failed; callers read Status
// to discriminate, the driver never returns a bare error.
type JobExecution struct {
	ID     string
	Status Status
	Steps  []*StepExecution
}

// StepByName finds a step execution by its configured name. Returns nil
// if the job did not run (or has not yet run) a step with that name,
// which for a failed job includes every step after the one that failed
// (spec.md §8.7).
func (j *JobExecution) StepByName(name string) *StepExecution {
	for _, se := range j.Steps {
		if se.Name() == name {
			return se
		}
	}
	return nil
}
