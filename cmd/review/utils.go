package review

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/registry"
	"github.com/scan-io-git/ansible-later/internal/report"
	"github.com/scan-io-git/ansible-later/internal/review"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
	"github.com/scan-io-git/ansible-later/pkg/shared/files"
)

// applyOptions returns a copy of cfg with the command line options layered on top.
func applyOptions(cfg *config.Config, options *RunOptionsReview, args []string) *config.Config {
	merged := *cfg
	rules := cfg.Rules

	rules.Dir = append(append([]string(nil), cfg.Rules.Dir...), options.RulesDir...)
	rules.IncludeFilter = append(append([]string(nil), cfg.Rules.IncludeFilter...), options.IncludeRules...)
	rules.ExcludeFilter = append(append([]string(nil), cfg.Rules.ExcludeFilter...), options.ExcludeRules...)
	rules.WarningFilter = append(append([]string(nil), cfg.Rules.WarningFilter...), options.WarningRules...)
	rules.ExcludeFiles = append(append([]string(nil), cfg.Rules.ExcludeFiles...), options.ExcludeFiles...)
	rules.Version = config.SetThen(options.StandardsVersion, cfg.Rules.Version)
	if len(args) > 0 {
		rules.Files = args
	}

	merged.Rules = rules
	return &merged
}

func jobs(options *RunOptionsReview) int {
	return config.SetThen(options.Jobs, review.DefaultJobs())
}

// classifyFiles builds candidates serially so that library/ registration is
// complete before reviews run in parallel.
func classifyFiles(cfg *config.Config, paths []string, log hclog.Logger) []*candidate.Candidate {
	modules := candidate.NewModuleRegistry(cfg.Ansible.CustomModules)
	var cands []*candidate.Candidate
	for _, path := range paths {
		c := candidate.Classify(path, modules)
		if c == nil {
			log.Debug("unknown file type", "path", path)
			continue
		}
		cands = append(cands, c)
	}
	if dirs := modules.Dirs(); len(dirs) > 0 {
		log.Debug("custom module directories", "dirs", dirs)
	}
	return cands
}

func writeReport(out io.Writer, format, runID string, count int, reviewer *review.Reviewer) error {
	switch format {
	case report.FormatText, "":
		return nil
	case report.FormatJSON:
		return report.WriteJSON(out, report.NewSummary(runID, count, reviewer.Entries()))
	case report.FormatSarif:
		return report.WriteSarif(out, runID, reviewer.Rules(), reviewer.Entries())
	}
	return fmt.Errorf("unsupported format %q", format)
}

// writeOutput stores a rendered report. Without a path the report goes to stdout,
// a directory (or extension-less path) receives later-report.<format>.
func writeOutput(path, format string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	fullPath, folder, err := files.DetermineFileFullPath(path, "later-report."+format)
	if err != nil {
		return err
	}
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return err
	}
	return files.WriteJsonFile(fullPath, data)
}

// warnUnknownRules logs filter ids that match no loaded rule.
func warnUnknownRules(cfg *config.Config, reg *registry.Registry, log hclog.Logger) {
	filters := map[string][]string{
		"include_filter": cfg.Rules.IncludeFilter,
		"exclude_filter": cfg.Rules.ExcludeFilter,
		"warning_filter": cfg.Rules.WarningFilter,
	}
	for _, name := range []string{"include_filter", "exclude_filter", "warning_filter"} {
		for _, id := range filters[name] {
			if _, ok := reg.Get(id); !ok {
				log.Warn("filter references an unknown rule", "filter", name, "rule", id)
			}
		}
	}
}
