package gobatch

import (
	stderrors "errors"
)

// Sentinel causes for the ConfigurationError BatchErrors produced by the
// builders in this package.
var (
	errEmptyStepName     = stderrors.New("step name must not be empty")
	errCommitInterval    = stderrors.New("commit interval must be >= 1")
	errNegativeSkipLimit = stderrors.New("skip limit must be >= 0")
	errNilReader         = stderrors.New("reader must not be nil")
	errNilProcessor      = stderrors.New("processor must not be nil")
	errNilWriter         = stderrors.New("writer must not be nil")
	errNilTasklet        = stderrors.New("tasklet must not be nil")
	errEmptyJob          = stderrors.New("job must have at least one step")
	errDuplicateStep     = stderrors.New("duplicate step name")
)
