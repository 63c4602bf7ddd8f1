package review

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/ansible-later/internal/registry"
	"github.com/scan-io-git/ansible-later/internal/report"
	"github.com/scan-io-git/ansible-later/internal/review"
	"github.com/scan-io-git/ansible-later/internal/rules"
	"github.com/scan-io-git/ansible-later/pkg/shared"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
	"github.com/scan-io-git/ansible-later/pkg/shared/errors"
)

// RunOptionsReview holds the arguments for the review command.
type RunOptionsReview struct {
	RulesDir         []string
	IncludeRules     []string
	ExcludeRules     []string
	WarningRules     []string
	ExcludeFiles     []string
	StandardsVersion string
	Jobs             int
	Format           string
	OutputPath       string
}

// Global variables for configuration and command arguments
var (
	AppConfig          *config.Config
	logger             hclog.Logger
	reviewOptions      RunOptionsReview
	exampleReviewUsage = `  # Review every file below the working directory
  ansible-later review

  # Review a single role
  ansible-later review roles/web

  # Review with a pinned standards version and only a subset of rules
  ansible-later review --standards-version 0.1 -i ANS101 -i ANS103 site.yml

  # Load additional rule plugins and write a SARIF report
  ansible-later review -r ./later-rules --format sarif --output later.sarif`
)

// ReviewCmd represents the review command.
var ReviewCmd = &cobra.Command{
	Use:                   "review [-r RULES_DIR] [-i RULE_ID] [-x RULE_ID] [-w RULE_ID] [--standards-version VERSION] [-j JOBS] [--format/-f FORMAT] [--output/-o PATH] [PATH...]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleReviewUsage,
	Short:                 "Review files against the registered rules",
	RunE:                  runReviewCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runReviewCommand(cmd *cobra.Command, args []string) error {
	if err := validateReviewArgs(&reviewOptions, args); err != nil {
		logger.Error("invalid review arguments", "error", err)
		return errors.NewCommandError(fmt.Errorf("invalid review arguments: %w", err), 2)
	}

	if shared.HasFlags(cmd.Flags()) {
		logger.Debug("command line overrides", "flags", shared.ChangedFlags(cmd.Flags()))
	}
	cfg := applyOptions(AppConfig, &reviewOptions, args)
	if err := config.ValidateConfig(cfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		return errors.NewCommandError(err, 2)
	}

	var buf bytes.Buffer
	count, err := Run(cfg, &reviewOptions, logger, &buf)
	if err != nil {
		return err
	}
	if err := writeOutput(reviewOptions.OutputPath, reviewOptions.Format, buf.Bytes()); err != nil {
		logger.Error("failed to write report", "error", err)
		return errors.NewCommandError(err, 2)
	}
	if count > 0 {
		return errors.NewCommandError(fmt.Errorf("review found %d error(s)", count), 1)
	}
	logger.Info("review completed successfully")
	return nil
}

// Run reviews the files selected by cfg and writes the report to out.
// It returns the number of errors found.
func Run(cfg *config.Config, options *RunOptionsReview, log hclog.Logger, out io.Writer) (int, error) {
	runID := report.NewRunID()
	log = log.With("run_id", runID)

	reg, err := registry.Load(cfg, rules.Builtin(), log)
	if err != nil {
		log.Error("failed to load rules", "error", err)
		return 0, errors.NewCommandError(err, 2)
	}
	defer reg.Close()

	paths, err := config.ResolveFiles(cfg)
	if err != nil {
		log.Error("failed to resolve files", "error", err)
		return 0, errors.NewCommandError(err, 2)
	}
	cands := classifyFiles(cfg, paths, log)

	warnUnknownRules(cfg, reg, log)
	reviewer := review.New(cfg, reg, log)
	count := reviewer.ReviewAll(cands, jobs(options))
	log.Info("statistic", "files", len(cands), "errors", count)

	if err := writeReport(out, options.Format, runID, count, reviewer); err != nil {
		log.Error("failed to write report", "error", err)
		return count, errors.NewCommandError(err, 2)
	}
	return count, nil
}

func init() {
	ReviewCmd.Flags().StringSliceVarP(&reviewOptions.RulesDir, "rules-dir", "r", nil, "Additional directory with rule plugins, can be repeated.")
	ReviewCmd.Flags().StringSliceVarP(&reviewOptions.IncludeRules, "include-rules", "i", nil, "Only run rules with this id, can be repeated.")
	ReviewCmd.Flags().StringSliceVarP(&reviewOptions.ExcludeRules, "exclude-rules", "x", nil, "Skip rules with this id, can be repeated.")
	ReviewCmd.Flags().StringSliceVarP(&reviewOptions.WarningRules, "warning-rules", "w", nil, "Report violations of this rule as warnings, can be repeated.")
	ReviewCmd.Flags().StringSliceVar(&reviewOptions.ExcludeFiles, "exclude-files", nil, "Glob of files or directories (with a trailing slash) to skip, can be repeated.")
	ReviewCmd.Flags().StringVar(&reviewOptions.StandardsVersion, "standards-version", "", "Review every file against this standards version.")
	ReviewCmd.Flags().IntVarP(&reviewOptions.Jobs, "jobs", "j", 0, "Number of files reviewed in parallel (default: number of CPUs minus one).")
	ReviewCmd.Flags().StringVarP(&reviewOptions.Format, "format", "f", report.FormatText, "Report format: text, json or sarif.")
	ReviewCmd.Flags().StringVarP(&reviewOptions.OutputPath, "output", "o", "", "Write the json or sarif report to this file instead of stdout.")
	ReviewCmd.Flags().BoolP("help", "h", false, "Show help for the review command.")
}
