package cmd

import (
	common "github.com/404wolf/livefs/common"
	"github.com/spf13/cobra"
)

var (
	logFile  string
	logLevel string
	silent   bool
)

// validateAndSetupLogging validates the log level and sets up the logger.
// Returns an error if the log level is invalid.
func validateAndSetupLogging() error {
	logger, err := common.SetupLogger(logFile, logLevel, silent)
	if err != nil {
		return err
	}
	common.Logger = logger
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "livefs",
	Short: "Expose live process state as a read-only filesystem",
	Long: "Mount a flat, read-only FUSE filesystem whose files are generated on demand " +
		"from the state of the running process. Reading some files, like quit, has side effects.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateAndSetupLogging()
	},
}

func InitRoot() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&silent, "silent", false, "disable console logging")

	MountInit()
	ConfigInit()
}

func Execute() error {
	InitRoot()
	return rootCmd.Execute()
}
