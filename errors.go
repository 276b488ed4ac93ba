package gobatch

import (
	stderrors "errors"
	"fmt"
)

// ErrorKind identifies which collaborator produced a failure and how the
// step driver is allowed to react to it. It is a closed set, stable for
// pattern matching with errors.Is against the sentinel values below.
type ErrorKind string

const (
	// KindRead marks a failure returned by a Reader. Skippable by default.
	KindRead ErrorKind = "read_error"

	// KindProcess marks a failure returned by a Processor. Skippable by default.
	KindProcess ErrorKind = "process_error"

	// KindFiltered marks a Processor's deliberate "drop this item" outcome.
	// Always non-fatal, never charged against the skip limit.
	KindFiltered ErrorKind = "filtered"

	// KindWrite marks a failure returned by a Writer's Write call. Skippable
	// by default; consumes skip budget equal to the chunk's item count.
	KindWrite ErrorKind = "write_error"

	// KindTasklet marks a failure returned by a Tasklet. Never skippable.
	KindTasklet ErrorKind = "tasklet_error"

	// KindLifecycle marks a failure from a writer's Open/Flush/Close. Never
	// skippable. Builder validation failures use KindConfiguration.
	KindLifecycle ErrorKind = "lifecycle_error"

	// KindConfiguration marks an invalid value rejected at build time.
	KindConfiguration ErrorKind = "configuration_error"
)

// Sentinel errors for the kinds above. Use errors.Is to test a returned
// error against these, and BatchError/As to recover the ErrorKind and any
// attached step/item context.
var (
	// ErrRead indicates a reader call failed before end-of-stream.
	ErrRead = stderrors.New("gobatch: read error")

	// ErrProcess indicates a processor call failed on a specific item.
	ErrProcess = stderrors.New("gobatch: process error")

	// ErrFiltered indicates a processor decided to drop an item. Never
	// fatal, never charged against a skip limit.
	ErrFiltered = stderrors.New("gobatch: item filtered")

	// ErrWrite indicates a writer call failed on a chunk.
	ErrWrite = stderrors.New("gobatch: write error")

	// ErrTasklet indicates a tasklet call failed.
	ErrTasklet = stderrors.New("gobatch: tasklet error")

	// ErrLifecycle indicates a writer's Open/Flush/Close failed.
	ErrLifecycle = stderrors.New("gobatch: lifecycle error")

	// ErrConfiguration indicates an invalid value was passed to a builder.
	ErrConfiguration = stderrors.New("gobatch: configuration error")
)

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindRead:
		return ErrRead
	case KindProcess:
		return ErrProcess
	case KindFiltered:
		return ErrFiltered
	case KindWrite:
		return ErrWrite
	case KindTasklet:
		return ErrTasklet
	case KindLifecycle:
		return ErrLifecycle
	case KindConfiguration:
		return ErrConfiguration
	default:
		return ErrLifecycle
	}
}

// BatchError wraps a collaborator failure with the ErrorKind the step
// driver uses for skip accounting, plus enough context (step name, item
// index) to make a surfaced LastError useful without retaining the
// original item.
type BatchError struct {
	Kind    ErrorKind
	Step    string
	Item    int // zero-based read_count at the time of failure, -1 if not applicable
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: step %q: %s", e.Kind, e.Step, e.Message)
}

// Unwrap exposes both the kind's sentinel and the original cause so
// errors.Is(err, gobatch.ErrWrite) and errors.Is(err, someAdapterErr)
// both succeed.
func (e *BatchError) Unwrap() []error {
	sentinel := sentinelFor(e.Kind)
	if e.Cause == nil || stderrors.Is(e.Cause, sentinel) {
		return []error{sentinel}
	}
	return []error{sentinel, e.Cause}
}

// newBatchError builds a BatchError whose Message is cause.Error(), or
// empty when cause is nil.
func newBatchError(kind ErrorKind, step string, item int, cause error) *BatchError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &BatchError{Kind: kind, Step: step, Item: item, Message: msg, Cause: cause}
}

// Filtered wraps an underlying reason as a KindFiltered error. Processors
// return this (or an error for which errors.Is(err, gobatch.ErrFiltered)
// holds) to drop an item without spending skip budget.
func Filtered(reason string) error {
	return &BatchError{Kind: KindFiltered, Message: reason, Cause: ErrFiltered}
}

// IsFiltered reports whether err represents a processor filter decision.
func IsFiltered(err error) bool {
	return stderrors.Is(err, ErrFiltered)
}

// LastError is the structured, serialization-friendly failure captured on
// a StepExecution when it terminates Failed. Unlike a raw error value, it
// survives crossing a process or log-line boundary.
type LastError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func lastErrorFrom(err error) LastError {
	if err == nil {
		return LastError{}
	}
	var be *BatchError
	if stderrors.As(err, &be) {
		return LastError{Kind: be.Kind, Message: be.Message}
	}
	return LastError{Kind: KindLifecycle, Message: err.Error()}
}

// IsEmpty reports whether no error was recorded.
func (e LastError) IsEmpty() bool {
	return e.Kind == "" && e.Message == ""
}
