package review

import (
	"fmt"
	"os"
	"strings"

	"github.com/scan-io-git/ansible-later/internal/report"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

// validateReviewArgs validates the arguments provided to the review command.
func validateReviewArgs(options *RunOptionsReview, args []string) error {
	if !config.Contains(report.Formats, options.Format) {
		return fmt.Errorf("unsupported format %q, expected one of: %s", options.Format, strings.Join(report.Formats, ", "))
	}

	if options.Jobs < 0 {
		return fmt.Errorf("the 'jobs' flag must not be negative")
	}

	if options.OutputPath != "" && options.Format == report.FormatText {
		return fmt.Errorf("the 'output' flag requires the json or sarif format")
	}

	for _, arg := range args {
		if _, err := os.Stat(arg); err != nil {
			return fmt.Errorf("invalid path %q: %w", arg, err)
		}
	}
	return nil
}
