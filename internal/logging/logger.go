// Package logging builds the zerolog.Logger used by cmd/gobatchctl: a
// console writer on an interactive terminal, JSON otherwise, optionally
// tee'd to a rotating log file on disk.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
	logFileName   = "gobatchctl.log"
	logDirPerm    = 0o750
)

// Options configures Init.
type Options struct {
	// Verbose selects Debug level. Takes precedence over Quiet.
	Verbose bool

	// Quiet selects Warn level.
	Quiet bool

	// LogDir, if non-empty, enables a rotating file writer under this
	// directory in addition to the console/JSON writer. Empty disables
	// file logging entirely.
	LogDir string
}

// Init builds a zerolog.Logger per Options. Output format is chosen by
// terminal capability: a colorized console writer on an interactive
// terminal with NO_COLOR unset, JSON to stderr otherwise. If LogDir is
// set and the directory cannot be prepared, Init falls back silently to
// console/JSON-only output rather than failing the whole command.
func Init(opts Options) zerolog.Logger {
	level := selectLevel(opts.Verbose, opts.Quiet)
	console := selectOutput()

	writer := io.Writer(console)
	if opts.LogDir != "" {
		if fileWriter, err := newRotatingFileWriter(opts.LogDir); err == nil {
			writer = zerolog.MultiLevelWriter(console, fileWriter)
		}
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// selectOutput picks console vs JSON rendering based on whether stderr
// is an interactive terminal and NO_COLOR is unset.
func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}
	return os.Stderr
}

func newRotatingFileWriter(logDir string) (io.WriteCloser, error) {
	if err := os.MkdirAll(logDir, logDirPerm); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, logFileName),
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}, nil
}
