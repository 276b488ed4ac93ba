package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/gobatch"
	"github.com/mrz1836/gobatch/specfile"
)

func TestNewRunCmd_HasWatchFlag(t *testing.T) {
	t.Parallel()

	cmd := newRunCmd()
	assert.NotNil(t, cmd.Flags().Lookup("watch"))
}

func TestRunPlain_ExecutesBuiltJob(t *testing.T) {
	t.Parallel()

	spec, err := specfile.Load([]byte(validSpecYAML))
	require.NoError(t, err)

	exec, err := runPlain(context.Background(), spec, nil)
	require.NoError(t, err)
	assert.Equal(t, gobatch.StatusCompleted, exec.Status)
	assert.Len(t, exec.Steps, 1)
}

func TestRunPlain_PropagatesBuildError(t *testing.T) {
	t.Parallel()

	spec := &specfile.JobSpec{Name: "empty"}
	_, err := runPlain(context.Background(), spec, nil)
	require.Error(t, err)
}

func TestNewRunCmd_PrintsActualReadWriteCounts(t *testing.T) {
	t.Parallel()

	path := writeSpecFile(t, validSpecYAML)
	cmd := newRunCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "read=2 write=2")
	assert.NotContains(t, out.String(), "%!d")
}
