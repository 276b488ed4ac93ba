package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/gobatch/internal/logging"
)

func TestInit_DefaultLevelIsInfo(t *testing.T) {
	t.Parallel()

	logger := logging.Init(logging.Options{})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestInit_VerboseIsDebug(t *testing.T) {
	t.Parallel()

	logger := logging.Init(logging.Options{Verbose: true})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestInit_QuietIsWarn(t *testing.T) {
	t.Parallel()

	logger := logging.Init(logging.Options{Quiet: true})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestInit_VerboseOverridesQuiet(t *testing.T) {
	t.Parallel()

	logger := logging.Init(logging.Options{Verbose: true, Quiet: true})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestInit_WithLogDirDoesNotPanic(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "logs")
	logger := logging.Init(logging.Options{LogDir: dir})
	logger.Info().Msg("hello")
}

func TestInit_UnwritableLogDirFallsBackToConsole(t *testing.T) {
	t.Parallel()

	// A path nested under a file (not a directory) can never be created.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	logger := logging.Init(logging.Options{LogDir: filepath.Join(blocker, "logs")})
	logger.Info().Msg("still works")
}
