package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/gobatch/specfile"
)

const validSpecYAML = `
name: demo
steps:
  - name: upcase
    type: lines
    commit_interval: 2
    skip_limit: 1
    reader:
      params:
        items: ["a", "b"]
        uppercase: true
`

func writeSpecFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestNewValidateCmd_AcceptsValidSpec(t *testing.T) {
	t.Parallel()

	path := writeSpecFile(t, validSpecYAML)
	cmd := newValidateCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "demo")
	assert.Contains(t, out.String(), "upcase")
}

func TestNewValidateCmd_RejectsUnknownStepType(t *testing.T) {
	t.Parallel()

	path := writeSpecFile(t, "name: demo\nsteps:\n  - name: s1\n    type: does-not-exist\n")
	cmd := newValidateCmd()
	cmd.SetArgs([]string{path})
	cmd.SetOut(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}

func TestRenderSummary_ListsSteps(t *testing.T) {
	t.Parallel()

	spec := &specfile.JobSpec{
		Name: "demo",
		Steps: []specfile.StepSpec{
			{Name: "s1", Type: "lines", CommitInterval: 5, SkipLimit: 1},
		},
	}

	out := renderSummary(spec)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "s1")
}
