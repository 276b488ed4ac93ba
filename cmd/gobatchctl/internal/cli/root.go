// Package cli provides the command-line interface for gobatchctl.
package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/gobatch/internal/logging"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalLogger stores the initialized logger for use by subcommands, set
// during PersistentPreRunE. Access is protected by globalLoggerMu.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// Logger returns the logger initialized by the root command's
// PersistentPreRunE. Calling it beforehand returns a zero-value logger
// that discards all output.
func Logger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "gobatchctl",
		Short:   "gobatchctl runs and inspects declarative batch jobs",
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			v.SetEnvPrefix("GOBATCH")
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()

			logger := logging.Init(logging.Options{
				Verbose: v.GetBool("verbose"),
				Quiet:   v.GetBool("quiet"),
				LogDir:  v.GetString("log-dir"),
			})

			globalLoggerMu.Lock()
			globalLogger = logger
			globalLoggerMu.Unlock()

			if v.GetBool("verbose") {
				logger.Debug().Msg("verbose mode enabled")
			}
			return nil
		},
		SilenceUsage: true,
	}

	AddGlobalFlags(cmd, flags)
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newVersionCmd(info))

	return cmd
}

func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the given context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, info)
	return cmd.ExecuteContext(ctx)
}
