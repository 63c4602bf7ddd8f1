package rules

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/internal/yamlhelper"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

var jinjaRe = regexp.MustCompile(`(?s){[{%#].*[%#}]}`)

var (
	// listLoops take either a list written in the task or a single list variable.
	listLoops = []string{"with_nested", "with_together", "with_flattened", "with_filetree", "with_community.general.filetree"}
	// freeLoops take arguments that are never variables.
	freeLoops = []string{"with_sequence", "with_ini", "with_inventory_hostnames"}
)

func hasJinja(s string) bool {
	return jinjaRe.MatchString(s)
}

func hasGlob(s string) bool {
	return strings.ContainsAny(s, "*?[]")
}

type deprecatedBareVars struct{ rule.Meta }

func NewDeprecatedBareVars() rule.Rule {
	return &deprecatedBareVars{rule.Meta{
		ID:          "ANS127",
		Description: "Deprecated bare variables in loops must not be used",
		HelpText:    "bare var '%s' in '%s' must use full var syntax '{{ %s }}' or be converted to a list",
		Types:       taskKinds,
	}}
}

func (r *deprecatedBareVars) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		loop := loopKey(t)
		if loop == "" || config.Contains(freeLoops, loop) {
			continue
		}

		value := mustGet(t, loop)
		var vars []any
		switch {
		case config.Contains(listLoops, loop):
			if items, ok := value.([]any); ok {
				vars = items
			} else {
				vars = []any{value}
			}
		case loop == "with_subelements":
			if items, ok := value.([]any); ok && len(items) > 0 {
				vars = items[:1]
			}
		default:
			vars = []any{value}
		}

		for _, v := range vars {
			s, ok := v.(string)
			if !ok || bareVarAllowed(s, loop) {
				continue
			}
			errs = append(errs, rule.NewFinding(t.Line, fmt.Sprintf(r.HelpText, s, loop, s),
				rule.Label{Key: "loop", Value: loop}))
		}
	}
	return rule.NewResult(c.Path, errs)
}

func loopKey(t *yamlhelper.NormalizedTask) string {
	for _, key := range t.Fields.Keys() {
		if strings.HasPrefix(key, "with_") {
			return key
		}
	}
	return ""
}

func bareVarAllowed(s, loop string) bool {
	if hasJinja(s) {
		return true
	}
	switch loop {
	case "with_fileglob":
		return hasGlob(s)
	case "with_filetree":
		return strings.HasSuffix(s, string(filepath.Separator))
	}
	return false
}
