package gobatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/gobatch"
)

// sliceReader replays a fixed slice of items, optionally failing at
// specific zero-based indexes (the index into the original slice, not
// the read_count) instead of returning the item.
type sliceReader[T any] struct {
	items  []T
	failAt map[int]error
	i      int
}

func (r *sliceReader[T]) Read(_ context.Context) (T, bool, error) {
	var zero T
	if r.i >= len(r.items) {
		return zero, false, nil
	}
	idx := r.i
	r.i++
	if err, ok := r.failAt[idx]; ok {
		return zero, true, err
	}
	return r.items[idx], true, nil
}

// countingWriter records every chunk handed to it and can be told to fail
// on a specific 1-based call number.
type countingWriter[T any] struct {
	mu      sync.Mutex
	chunks  [][]T
	failOn  map[int]error
	calls   int
}

func (w *countingWriter[T]) Write(_ context.Context, chunk []T) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if err, ok := w.failOn[w.calls]; ok {
		return err
	}
	cp := make([]T, len(chunk))
	copy(cp, chunk)
	w.chunks = append(w.chunks, cp)
	return nil
}

func buildSingleStepJob(t *testing.T, step gobatch.Step) *gobatch.JobExecution {
	t.Helper()
	job, err := gobatch.NewJobBuilder().Start(step).Build()
	require.NoError(t, err)
	return job.Run(context.Background())
}

// S1: happy path, no errors, commit_interval=2 over 5 items.
func TestChunkStep_HappyPath(t *testing.T) {
	t.Parallel()

	reader := &sliceReader[int]{items: []int{1, 2, 3, 4, 5}}
	writer := &countingWriter[int]{}
	doubler := gobatch.ProcessorFunc[int, int](func(_ context.Context, i int) (int, error) {
		return i * 2, nil
	})

	step, err := gobatch.NewChunkStep("double", reader, doubler, writer, gobatch.ChunkConfig{CommitInterval: 2})
	require.NoError(t, err)

	exec := buildSingleStepJob(t, step)
	require.Equal(t, gobatch.StatusCompleted, exec.Status)

	se := exec.StepByName("double")
	require.NotNil(t, se)
	assert.Equal(t, 5, se.ReadCount())
	assert.Equal(t, 5, se.WriteCount())
	assert.Equal(t, 0, se.ReadSkipCount())
	assert.Equal(t, 0, se.ProcessSkipCount())
	assert.Equal(t, 0, se.WriteSkipCount())
	assert.Equal(t, gobatch.StatusCompleted, se.Status())
	assert.True(t, se.LastError().IsEmpty())

	require.Len(t, writer.chunks, 3)
	assert.Equal(t, []int{2, 4}, writer.chunks[0])
	assert.Equal(t, []int{6, 8}, writer.chunks[1])
	assert.Equal(t, []int{10}, writer.chunks[2])
}

// S2: the writer's second call fails; skip_limit=2 tolerates the whole
// discarded chunk.
func TestChunkStep_WriteFailureWithinSkipLimit(t *testing.T) {
	t.Parallel()

	reader := &sliceReader[int]{items: []int{1, 2, 3, 4, 5}}
	writer := &countingWriter[int]{failOn: map[int]error{2: errors.New("disk full")}}

	step, err := gobatch.NewChunkStep("write-skip", reader, gobatch.Identity[int](), writer, gobatch.ChunkConfig{
		CommitInterval: 2,
		SkipLimit:      2,
	})
	require.NoError(t, err)

	exec := buildSingleStepJob(t, step)
	require.Equal(t, gobatch.StatusCompleted, exec.Status)

	se := exec.StepByName("write-skip")
	assert.Equal(t, 5, se.ReadCount())
	assert.Equal(t, 3, se.WriteCount())
	assert.Equal(t, 2, se.WriteSkipCount())
	assert.Equal(t, 0, se.ProcessSkipCount())

	require.Len(t, writer.chunks, 2)
	assert.Equal(t, []int{1, 2}, writer.chunks[0])
	assert.Equal(t, []int{5}, writer.chunks[1])
}

// S3: the processor fails on items 3, 7 and 9; commit_interval=4,
// skip_limit=2 so the third process failure crosses the limit and fails
// the step with a committed first chunk already in hand.
func TestChunkStep_ProcessFailureCrossesSkipLimit(t *testing.T) {
	t.Parallel()

	reader := &sliceReader[int]{items: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}
	writer := &countingWriter[int]{}
	failing := map[int]bool{3: true, 7: true, 9: true}
	proc := gobatch.ProcessorFunc[int, int](func(_ context.Context, i int) (int, error) {
		if failing[i] {
			return 0, errors.New("bad item")
		}
		return i, nil
	})

	step, err := gobatch.NewChunkStep("process-skip", reader, proc, writer, gobatch.ChunkConfig{
		CommitInterval: 4,
		SkipLimit:      2,
	})
	require.NoError(t, err)

	exec := buildSingleStepJob(t, step)
	require.Equal(t, gobatch.StatusFailed, exec.Status)

	se := exec.StepByName("process-skip")
	assert.Equal(t, 9, se.ReadCount())
	assert.Equal(t, 4, se.WriteCount())
	assert.Equal(t, 3, se.ProcessSkipCount())
	assert.Equal(t, 0, se.WriteSkipCount())
	assert.Equal(t, gobatch.StatusFailed, se.Status())
	assert.Equal(t, gobatch.KindProcess, se.LastError().Kind)

	require.Len(t, writer.chunks, 1)
	assert.Equal(t, []int{1, 2, 4, 5}, writer.chunks[0])
}

// S4: Filtered items never consume skip budget, even with skip_limit=0.
func TestChunkStep_FilteredIsFreeOfSkipBudget(t *testing.T) {
	t.Parallel()

	reader := &sliceReader[int]{items: []int{1, 2, 3, 4, 5, 6}}
	writer := &countingWriter[int]{}
	dropOdd := gobatch.ProcessorFunc[int, int](func(_ context.Context, i int) (int, error) {
		if i%2 != 0 {
			return 0, gobatch.Filtered("odd")
		}
		return i, nil
	})

	step, err := gobatch.NewChunkStep("filter", reader, dropOdd, writer, gobatch.ChunkConfig{
		CommitInterval: 10,
		SkipLimit:      0,
	})
	require.NoError(t, err)

	exec := buildSingleStepJob(t, step)
	require.Equal(t, gobatch.StatusCompleted, exec.Status)

	se := exec.StepByName("filter")
	assert.Equal(t, 6, se.ReadCount())
	assert.Equal(t, 3, se.WriteCount())
	assert.Equal(t, 3, se.ProcessSkipCount())
	assert.Equal(t, 0, se.WriteSkipCount())

	require.Len(t, writer.chunks, 1)
	assert.Equal(t, []int{2, 4, 6}, writer.chunks[0])
}

// A read failure beyond the skip limit fails the step immediately without
// ever reaching the writer.
func TestChunkStep_ReadFailureBeyondSkipLimitFailsFast(t *testing.T) {
	t.Parallel()

	reader := &sliceReader[int]{
		items:  []int{1, 2, 3},
		failAt: map[int]error{1: errors.New("corrupt record")},
	}
	writer := &countingWriter[int]{}

	step, err := gobatch.NewChunkStep("read-fail", reader, gobatch.Identity[int](), writer, gobatch.ChunkConfig{
		CommitInterval: 10,
		SkipLimit:      0,
	})
	require.NoError(t, err)

	exec := buildSingleStepJob(t, step)
	require.Equal(t, gobatch.StatusFailed, exec.Status)

	se := exec.StepByName("read-fail")
	assert.Equal(t, 1, se.ReadCount())
	assert.Equal(t, 1, se.ReadSkipCount())
	assert.Equal(t, gobatch.KindRead, se.LastError().Kind)
	assert.Empty(t, writer.chunks)
}

// Writer Open/Flush errors are always fatal, never skippable, regardless
// of skip limit.
func TestChunkStep_WriterOpenFailureIsFatal(t *testing.T) {
	t.Parallel()

	reader := &sliceReader[int]{items: []int{1}}
	writer := &openFailingWriter{}

	step, err := gobatch.NewChunkStep("open-fail", reader, gobatch.Identity[int](), writer, gobatch.ChunkConfig{
		CommitInterval: 10,
		SkipLimit:      100,
	})
	require.NoError(t, err)

	exec := buildSingleStepJob(t, step)
	require.Equal(t, gobatch.StatusFailed, exec.Status)

	se := exec.StepByName("open-fail")
	assert.Equal(t, gobatch.KindLifecycle, se.LastError().Kind)
}

type openFailingWriter struct{}

func (openFailingWriter) Open(_ context.Context) error       { return errors.New("cannot open sink") }
func (openFailingWriter) Write(_ context.Context, _ []int) error { return nil }

func TestNewChunkStep_ValidationErrors(t *testing.T) {
	t.Parallel()

	reader := &sliceReader[int]{items: []int{1}}
	writer := &countingWriter[int]{}
	proc := gobatch.Identity[int]()

	_, err := gobatch.NewChunkStep("", reader, proc, writer, gobatch.ChunkConfig{CommitInterval: 1})
	assert.ErrorIs(t, err, gobatch.ErrConfiguration)

	_, err = gobatch.NewChunkStep("s", reader, proc, writer, gobatch.ChunkConfig{CommitInterval: 0})
	assert.ErrorIs(t, err, gobatch.ErrConfiguration)

	_, err = gobatch.NewChunkStep("s", reader, proc, writer, gobatch.ChunkConfig{CommitInterval: 1, SkipLimit: -1})
	assert.ErrorIs(t, err, gobatch.ErrConfiguration)

	_, err = gobatch.NewChunkStep[int, int]("s", nil, proc, writer, gobatch.ChunkConfig{CommitInterval: 1})
	assert.ErrorIs(t, err, gobatch.ErrConfiguration)

	_, err = gobatch.NewChunkStep[int, int]("s", reader, nil, writer, gobatch.ChunkConfig{CommitInterval: 1})
	assert.ErrorIs(t, err, gobatch.ErrConfiguration)

	_, err = gobatch.NewChunkStep[int, int]("s", reader, proc, nil, gobatch.ChunkConfig{CommitInterval: 1})
	assert.ErrorIs(t, err, gobatch.ErrConfiguration)
}

// S5: a tasklet is invoked until it reports Finished, with no further
// calls made afterward.
func TestTaskletStep_LoopsUntilFinished(t *testing.T) {
	t.Parallel()

	var calls int
	tasklet := gobatch.TaskletFunc(func(_ context.Context, _ gobatch.StepExecutionView) (gobatch.RepeatStatus, error) {
		calls++
		if calls < 3 {
			return gobatch.Continuable, nil
		}
		return gobatch.Finished, nil
	})

	step, err := gobatch.NewTaskletStep("loop", tasklet)
	require.NoError(t, err)

	exec := buildSingleStepJob(t, step)
	require.Equal(t, gobatch.StatusCompleted, exec.Status)
	assert.Equal(t, 3, calls)

	se := exec.StepByName("loop")
	assert.Equal(t, gobatch.StatusCompleted, se.Status())
}

func TestTaskletStep_FailsOnError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tasklet := gobatch.TaskletFunc(func(_ context.Context, _ gobatch.StepExecutionView) (gobatch.RepeatStatus, error) {
		return gobatch.Continuable, boom
	})

	step, err := gobatch.NewTaskletStep("fails", tasklet)
	require.NoError(t, err)

	exec := buildSingleStepJob(t, step)
	require.Equal(t, gobatch.StatusFailed, exec.Status)

	se := exec.StepByName("fails")
	assert.Equal(t, gobatch.KindTasklet, se.LastError().Kind)
}

func TestNewTaskletStep_ValidationErrors(t *testing.T) {
	t.Parallel()

	_, err := gobatch.NewTaskletStep("", gobatch.TaskletFunc(func(context.Context, gobatch.StepExecutionView) (gobatch.RepeatStatus, error) {
		return gobatch.Finished, nil
	}))
	assert.ErrorIs(t, err, gobatch.ErrConfiguration)

	_, err = gobatch.NewTaskletStep("s", nil)
	assert.ErrorIs(t, err, gobatch.ErrConfiguration)
}
