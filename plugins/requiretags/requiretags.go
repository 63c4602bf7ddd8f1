package main

import (
	"fmt"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

// RequireTags flags tasks that carry no tags. Untagged tasks cannot be
// selected with --tags or skipped with --skip-tags.
type RequireTags struct {
	rule.Meta
}

func NewRequireTags() rule.Rule {
	return &RequireTags{rule.Meta{
		ID:          "PLG101",
		Description: "Tasks should be tagged",
		HelpText:    "task `%s` has no tags",
		Types:       []candidate.Kind{candidate.KindPlaybook, candidate.KindTask, candidate.KindHandler},
	}}
}

func (r *RequireTags) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, task := range tasks {
		if task.Action.Module == "meta" || len(task.Tags()) > 0 {
			continue
		}
		name := task.Name()
		if name == "" {
			name = task.Action.Module
		}
		errs = append(errs, rule.NewFinding(task.Line, fmt.Sprintf(r.HelpText, name),
			rule.Label{Key: "module", Value: task.Action.Module}))
	}
	return rule.NewResult(c.Path, errs)
}
