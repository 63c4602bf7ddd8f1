package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/internal/yamlhelper"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

var taskNameRe = regexp.MustCompile(`-\sname:(.*)`)

var separationAllowedPrev = []string{
	"---", "handlers:", "tasks:", "pre_tasks:", "post_tasks:", "block:", "rescue:", "always:",
}

type taskSeparation struct{ rule.Meta }

func NewTaskSeparation() rule.Rule {
	return &taskSeparation{rule.Meta{
		ID:          "ANS101",
		Description: "Single tasks should be separated by empty line",
		HelpText:    "missing task separation (required: 1 empty line)",
		Version:     "0.1",
		Types:       taskKinds,
	}}
}

func (r *taskSeparation) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	lines, errs := rule.GetNormalizedYAML(c, cfg, &yamlhelper.LineOptions{})
	tasks, taskErrs := rule.GetNormalizedTasks(c, cfg, false)
	errs = append(errs, taskErrs...)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	names := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		names[t.Name()] = true
	}

	prev := "#file_start_marker"
	for _, line := range lines {
		if m := taskNameRe.FindStringSubmatch(line.Text); m != nil && prev != "" {
			if names[strings.TrimSpace(m[1])] && !containsAny(prev, separationAllowedPrev) {
				errs = append(errs, rule.NewFinding(line.Number, r.HelpText))
			}
		}
		prev = strings.TrimSpace(line.Text)
	}
	return rule.NewResult(c.Path, errs)
}

func containsAny(s string, items []string) bool {
	for _, item := range items {
		if strings.Contains(s, item) {
			return true
		}
	}
	return false
}

// namedLines maps task names to their lines, keeping first-seen order of names.
func namedLines(tasks []*yamlhelper.NormalizedTask) ([]string, map[string][]int) {
	var order []string
	lines := make(map[string][]int)
	for _, t := range tasks {
		if !t.Has("name") {
			continue
		}
		name := t.Name()
		if _, ok := lines[name]; !ok {
			order = append(order, name)
		}
		lines[name] = append(lines[name], t.Line)
	}
	return order, lines
}

type uniqueNamedTask struct{ rule.Meta }

func NewUniqueNamedTask() rule.Rule {
	return &uniqueNamedTask{rule.Meta{
		ID:          "ANS103",
		Description: "Tasks and handlers must be uniquely named within a single file",
		HelpText:    "name `%s` appears multiple times",
		Version:     "0.1",
		Types:       taskKinds,
	}}
}

func (r *uniqueNamedTask) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	order, lines := namedLines(tasks)
	for _, name := range order {
		if l := lines[name]; name != "" && len(l) > 1 {
			errs = append(errs, rule.NewFinding(l[len(l)-1], fmt.Sprintf(r.HelpText, name),
				rule.Label{Key: "name", Value: name}))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type namedTask struct{ rule.Meta }

func NewNamedTask() rule.Rule {
	return &namedTask{rule.Meta{
		ID:          "ANS106",
		Description: "Tasks and handlers must be named",
		HelpText:    "module `%s` used without or empty `name` attribute",
		Version:     "0.1",
		Types:       taskKinds,
	}}
}

func (r *namedTask) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		module := t.Action.Module
		if t.Name() == "" && !config.Contains(cfg.Ansible.NamedTask.Exclude, module) {
			errs = append(errs, rule.NewFinding(t.Line, fmt.Sprintf(r.HelpText, module),
				rule.Label{Key: "module", Value: module}))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type nameFormat struct{ rule.Meta }

func NewNameFormat() rule.Rule {
	return &nameFormat{rule.Meta{
		ID:          "ANS107",
		Description: "Name of tasks and handlers must be formatted",
		HelpText:    "name `%s` should start with uppercase",
		Version:     "0.1",
		Types:       taskKinds,
	}}
}

func (r *nameFormat) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	order, lines := namedLines(tasks)
	for _, name := range order {
		if first, _ := utf8.DecodeRuneInString(name); name != "" && !unicode.IsUpper(first) {
			l := lines[name]
			errs = append(errs, rule.NewFinding(l[len(l)-1], fmt.Sprintf(r.HelpText, name)))
		}
	}
	return rule.NewResult(c.Path, errs)
}

var trueValues = []string{"true", "True", "TRUE", "yes", "Yes", "YES"}

func isTrue(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return config.Contains(trueValues, yamlhelper.ScalarString(v))
}

type becomeUser struct{ rule.Meta }

func NewBecomeUser() rule.Rule {
	return &becomeUser{rule.Meta{
		ID:          "ANS115",
		Description: "Become should be combined with become_user",
		HelpText:    "the task has `become` enabled but `become_user` is missing",
		Version:     "0.1",
		Types:       taskKinds,
	}}
}

func (r *becomeUser) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		become, ok := t.Get("become")
		if !ok || t.Has("become_user") {
			continue
		}
		if isTrue(become) {
			errs = append(errs, rule.NewFinding(t.Line, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type whenFormat struct{ rule.Meta }

func NewWhenFormat() rule.Rule {
	return &whenFormat{rule.Meta{
		ID:          "ANS122",
		Description: "Don't use Jinja2 in when",
		HelpText:    "`when` is a raw Jinja2 expression, redundant `{{ }}` should be removed from variable(s)",
		Types:       taskKinds,
	}}
}

func (r *whenFormat) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		when, ok := t.Get("when")
		s, isString := when.(string)
		if ok && isString && (strings.Contains(s, "{{") || strings.Contains(s, "}}")) {
			errs = append(errs, rule.NewFinding(t.Line, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type localAction struct{ rule.Meta }

func NewLocalAction() rule.Rule {
	return &localAction{rule.Meta{
		ID:          "ANS124",
		Description: "Don't use local_action",
		HelpText:    "`delegate_to: localhost` should be used instead of `local_action`",
		Types:       taskKinds,
	}}
}

func (r *localAction) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	lines, errs := rule.GetNormalizedYAML(c, cfg, nil)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, line := range lines {
		if strings.Contains(line.Text, "local_action") {
			errs = append(errs, rule.NewFinding(line.Number, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}

var relativePathFolders = map[string]string{
	"copy":         "files",
	"win_copy":     "files",
	"template":     "templates",
	"win_template": "win_templates",
}

type relativeRolePaths struct{ rule.Meta }

func NewRelativeRolePaths() rule.Rule {
	return &relativeRolePaths{rule.Meta{
		ID:          "ANS125",
		Description: "Don't use a relative path in a role",
		HelpText:    "`copy` and `template` modules don't need relative path for `src`",
		Types:       taskKinds,
	}}
}

func (r *relativeRolePaths) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		folder, ok := relativePathFolders[t.Action.Module]
		if !ok || !t.Action.Has("src") {
			continue
		}
		if strings.Contains(t.Action.GetString("src"), "../"+folder) {
			errs = append(errs, rule.NewFinding(t.Line, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}

var changedMarkers = []string{".changed", "|changed", `["changed"]`, "['changed']", "is changed"}

type changedInWhen struct{ rule.Meta }

func NewChangedInWhen() rule.Rule {
	return &changedInWhen{rule.Meta{
		ID:          "ANS126",
		Description: "Use handlers instead of `when: changed`",
		HelpText:    "tasks using `when: result.changed` setting are effectively acting as a handler",
		Types:       taskKinds,
	}}
}

func (r *changedInWhen) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		if t.ActionType != yamlhelper.ActionTypeTask && t.ActionType != yamlhelper.ActionTypeMeta {
			continue
		}
		var conditions []any
		switch w := mustGet(t, "when").(type) {
		case string:
			conditions = []any{w}
		case []any:
			conditions = w
		}
		for _, cond := range conditions {
			if s, ok := cond.(string); ok && changedInCondition(s) {
				errs = append(errs, rule.NewFinding(t.Line, r.HelpText))
			}
		}
	}
	return rule.NewResult(c.Path, errs)
}

func mustGet(t *yamlhelper.NormalizedTask, key string) any {
	v, _ := t.Get(key)
	return v
}

func changedInCondition(cond string) bool {
	for _, word := range strings.Fields(cond) {
		if word == "and" || word == "or" || word == "not" {
			return false
		}
	}
	return containsAny(cond, changedMarkers)
}

type deprecated struct{ rule.Meta }

func NewDeprecated() rule.Rule {
	return &deprecated{rule.Meta{
		ID:          "ANS998",
		Description: "Deprecated features should not be used",
		HelpText:    "`%s` is deprecated and should not be used anymore. Use `%s` instead.",
		Types:       taskKinds,
	}}
}

func (r *deprecated) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, true)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		if config.Contains(t.Tags(), "skip_ansible_lint") {
			errs = append(errs, rule.NewFinding(t.Line,
				fmt.Sprintf(r.HelpText, "skip_ansible_lint", "skip_ansible_later")))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type versionPinned struct{ rule.Meta }

func NewVersionPinned() rule.Rule {
	return &versionPinned{rule.Meta{
		ID:          "ANS999",
		Description: "Standards version should be pinned",
		HelpText:    "Standards version not set. Using latest standards version %s",
		Types:       taskKinds,
	}}
}

func (r *versionPinned) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	var errs []rule.Finding
	if !c.VersionPinned {
		errs = append(errs, rule.NewFinding(0, fmt.Sprintf(r.HelpText, c.Version)))
	}
	return rule.NewResult(c.Path, errs)
}
