package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
	// LogDir, if set, enables a rotating log file in addition to stderr.
	LogDir string
}

// AddGlobalFlags adds global flags to cmd, available to every subcommand
// via PersistentFlags.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVar(&flags.LogDir, "log-dir", "", "directory for a rotating log file (disabled if empty)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to Viper for environment variable
// support. The GOBATCH_ prefix is used (e.g. GOBATCH_VERBOSE, GOBATCH_LOG_DIR).
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()

	if err := v.BindPFlag("verbose", rootFlags.Lookup("verbose")); err != nil {
		return err
	}
	if err := v.BindPFlag("quiet", rootFlags.Lookup("quiet")); err != nil {
		return err
	}
	return v.BindPFlag("log-dir", rootFlags.Lookup("log-dir"))
}
