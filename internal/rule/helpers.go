package rule

import (
	"errors"
	"fmt"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/yamlhelper"
	"github.com/scan-io-git/ansible-later/internal/yamllint"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

// Tags that exclude a task from normalized task lists.
var skipTags = []string{"skip_ansible_lint", "skip_ansible_later"}

// markFaulty records the single syntax finding for c and flags it.
func markFaulty(c *candidate.Candidate, err error) []Finding {
	c.Faulty = true
	var perr *yamlhelper.ParseError
	if errors.As(err, &perr) {
		return []Finding{NewFinding(perr.Line, perr.Error())}
	}
	return []Finding{NewFinding(0, fmt.Sprintf("syntax error: %v", err))}
}

type moduleLookup struct {
	registry *candidate.ModuleRegistry
	custom   []string
}

func (m moduleLookup) Has(name string) bool {
	return m.registry.Has(name) || config.Contains(m.custom, name)
}

// GetTasks parses the candidate into a line-annotated tree.
func GetTasks(c *candidate.Candidate, cfg *config.Config) (any, []Finding) {
	if c.Faulty {
		return nil, nil
	}
	content, err := c.Content()
	if err != nil {
		return nil, markFaulty(c, err)
	}
	doc, err := yamlhelper.Parse(content, c.Path)
	if err != nil {
		return nil, markFaulty(c, err)
	}
	return doc, nil
}

// GetActionTasks returns the task mappings of the candidate with blocks flattened.
func GetActionTasks(c *candidate.Candidate, cfg *config.Config) ([]*yamlhelper.RawTask, []Finding) {
	if c.Faulty {
		return nil, nil
	}
	doc, errs := GetTasks(c, cfg)
	if c.Faulty {
		return nil, errs
	}
	tasks, err := yamlhelper.ActionTasks(doc, candidate.ActionSection(c.Kind))
	if err != nil {
		return nil, markFaulty(c, err)
	}
	return tasks, nil
}

// GetNormalizedTask normalizes a single task of c.
func GetNormalizedTask(task *yamlhelper.RawTask, c *candidate.Candidate, cfg *config.Config) (*yamlhelper.NormalizedTask, []Finding) {
	if c.Faulty {
		return nil, nil
	}
	var custom []string
	if cfg != nil {
		custom = cfg.Ansible.CustomModules
	}
	normalized, err := yamlhelper.NormalizeTask(task, moduleLookup{registry: c.Modules(), custom: custom})
	if err != nil {
		return nil, markFaulty(c, err)
	}
	return normalized, nil
}

// GetNormalizedTasks normalizes every task of c. Tasks tagged to be skipped
// are left out unless full is set.
func GetNormalizedTasks(c *candidate.Candidate, cfg *config.Config, full bool) ([]*yamlhelper.NormalizedTask, []Finding) {
	if c.Faulty {
		return nil, nil
	}
	tasks, errs := GetActionTasks(c, cfg)
	if c.Faulty {
		return nil, errs
	}

	var normalized []*yamlhelper.NormalizedTask
	for _, task := range tasks {
		if !full && hasSkipTag(task) {
			continue
		}
		n, errs := GetNormalizedTask(task, c, cfg)
		if c.Faulty {
			return nil, errs
		}
		normalized = append(normalized, n)
	}
	return normalized, nil
}

func hasSkipTag(task *yamlhelper.RawTask) bool {
	tagged := &yamlhelper.NormalizedTask{Fields: task.Map}
	for _, tag := range tagged.Tags() {
		if config.Contains(skipTags, tag) {
			return true
		}
	}
	return false
}

// GetNormalizedYAML returns the candidate's lines without comments. A nil opts
// uses yamlhelper.DefaultLineOptions.
func GetNormalizedYAML(c *candidate.Candidate, cfg *config.Config, opts *yamlhelper.LineOptions) ([]yamlhelper.Line, []Finding) {
	if c.Faulty {
		return nil, nil
	}
	content, err := c.Content()
	if err != nil {
		return nil, markFaulty(c, err)
	}
	lineOpts := yamlhelper.DefaultLineOptions()
	if opts != nil {
		lineOpts = *opts
	}
	return yamlhelper.NormalizedYAML(content, lineOpts), nil
}

// GetRawYAML returns the document as plain maps and slices.
func GetRawYAML(c *candidate.Candidate, cfg *config.Config) (any, []Finding) {
	doc, errs := GetTasks(c, cfg)
	if c.Faulty || doc == nil {
		return nil, errs
	}
	return yamlhelper.ToNative(doc), nil
}

// RunYamllint lints the candidate with an inline rule configuration such as
// "rules: {empty-lines: {max: 1}}".
func RunYamllint(c *candidate.Candidate, options string) []Finding {
	if c.Faulty {
		return nil
	}
	content, err := c.Content()
	if err != nil {
		return markFaulty(c, err)
	}
	if _, err := yamlhelper.Parse(content, c.Path); err != nil {
		return markFaulty(c, err)
	}

	problems, err := yamllint.Run(content, options)
	if err != nil {
		return []Finding{NewFinding(0, fmt.Sprintf("yamllint: %v", err))}
	}
	findings := make([]Finding, 0, len(problems))
	for _, p := range problems {
		findings = append(findings, NewFinding(p.Line, p.Desc, Label{Key: "yamllint_rule", Value: p.Rule}))
	}
	return findings
}
