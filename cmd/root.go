package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/ansible-later/cmd/review"
	"github.com/scan-io-git/ansible-later/cmd/rules"
	"github.com/scan-io-git/ansible-later/cmd/version"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
	"github.com/scan-io-git/ansible-later/pkg/shared/errors"
	"github.com/scan-io-git/ansible-later/pkg/shared/logger"
)

const (
	exitOK    = 0
	exitUsage = 2
)

var (
	cfgFile   string
	verbose   int
	quiet     int
	logLevel  string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "ansible-later [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "ansible-later is a best practice scanner for Ansible roles and playbooks.",
		Long: `ansible-later reviews Ansible roles, playbooks and inventories against a versioned
set of rules. Findings are reported as best practices, future standards or
violations depending on the standards version a file declares.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file (default is .later.yml in the working directory).")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Increase log verbosity, can be repeated.")
	rootCmd.PersistentFlags().CountVarP(&quiet, "quiet", "q", "Decrease log verbosity, can be repeated.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set the log level explicitly (TRACE, DEBUG, INFO, WARN, ERROR).")

	rootCmd.AddCommand(review.ReviewCmd)
	rootCmd.AddCommand(rules.RulesCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}

	var cmdErr *errors.CommandError
	if stderrors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
	return exitUsage
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigFile); err == nil {
			path = config.DefaultConfigFile
		}
	}

	var err error
	AppConfig, err = config.NewConfig(path)
	if err != nil {
		return fmt.Errorf("initializing config file failed: %w", err)
	}

	AppConfig.Logging.Level = config.AdjustLevel(AppConfig.Logging.Level, quiet-verbose)
	if logLevel != "" {
		AppConfig.Logging.Level = logLevel
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		return err
	}

	log := logger.NewLogger(AppConfig, "later")
	log.Debug("configuration loaded", "path", path, "level", AppConfig.Logging.Level)

	review.Init(AppConfig, log)
	rules.Init(AppConfig, log)
	version.Init(AppConfig)
	return nil
}
