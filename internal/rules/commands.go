package rules

import (
	"fmt"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/internal/yamlhelper"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

var moduleReplacements = map[string]string{
	"git":           "git",
	"hg":            "hg",
	"curl":          "get_url or uri",
	"wget":          "get_url or uri",
	"svn":           "subversion",
	"service":       "service",
	"mount":         "mount",
	"rpm":           "yum or rpm_key",
	"yum":           "yum",
	"apt-get":       "apt-get",
	"unzip":         "unarchive",
	"tar":           "unarchive",
	"chkconfig":     "service",
	"rsync":         "synchronize",
	"supervisorctl": "supervisorctl",
	"systemctl":     "systemd",
	"sed":           "template or lineinfile",
}

var argumentReplacements = map[string]string{
	"chown": "owner",
	"chmod": "mode",
	"chgrp": "group",
	"ln":    "state=link",
	"mkdir": "state=directory",
	"rmdir": "state=absent",
	"rm":    "state=absent",
}

var packageManagers = []string{
	"yum", "apt", "dnf", "homebrew", "pacman", "openbsd_package", "pkg5", "portage",
	"pkgutil", "slackpkg", "swdepot", "zypper", "bundler", "pip", "pear", "npm",
	"yarn", "gem", "easy_install", "bower", "package", "apk", "openbsd_pkg",
	"pkgng", "sorcery", "xbps",
}

var permissionModules = []string{
	"assemble", "copy", "file", "ini_file", "lineinfile", "replace",
	"synchronize", "template", "unarchive",
}

// warnEnabled treats a missing warn argument as enabled.
func warnEnabled(task *yamlhelper.NormalizedTask) bool {
	v, ok := task.Action.Get("warn")
	if !ok {
		return true
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return !config.Contains([]string{"false", "False", "no", "No", "off", ""}, t)
	}
	return v != nil
}

type commandInsteadOfModule struct{ rule.Meta }

func NewCommandInsteadOfModule() rule.Rule {
	return &commandInsteadOfModule{rule.Meta{
		ID:          "ANS108",
		Description: "Commands should not be used in place of modules",
		HelpText:    "%s command used in place of %s module",
		Version:     "0.1",
		Types:       taskKinds,
	}}
}

func (r *commandInsteadOfModule) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		if !rule.IsCommand(t) || rule.GetFirstCmdArg(t) == "" {
			continue
		}
		executable := rule.GetExecutable(t)
		module, ok := moduleReplacements[executable]
		if !ok || !warnEnabled(t) || t.Has("register") || rule.UsesShellSyntax(rule.GetSafeCmd(t)) {
			continue
		}
		errs = append(errs, rule.NewFinding(t.Line, fmt.Sprintf(r.HelpText, executable, module),
			rule.Label{Key: "executable", Value: executable}))
	}
	return rule.NewResult(c.Path, errs)
}

type installUseLatest struct{ rule.Meta }

func NewInstallUseLatest() rule.Rule {
	return &installUseLatest{rule.Meta{
		ID:          "ANS109",
		Description: "Package installs should use present, not latest",
		HelpText:    "package installs should use `state=present` with or without a version",
		Types:       taskKinds,
	}}
}

func (r *installUseLatest) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		if config.Contains(packageManagers, t.Action.Module) && t.Action.GetString("state") == "latest" {
			errs = append(errs, rule.NewFinding(t.Line, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type shellInsteadCommand struct{ rule.Meta }

func NewShellInsteadCommand() rule.Rule {
	return &shellInsteadCommand{rule.Meta{
		ID:          "ANS110",
		Description: "Shell should only be used when essential",
		HelpText:    "shell should only be used when piping, redirecting or chaining commands",
		Types:       taskKinds,
	}}
}

func (r *shellInsteadCommand) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		// the command module does not support executable
		if t.Action.Module != "shell" || t.Action.Has("executable") {
			continue
		}
		if !rule.UsesShellSyntax(rule.GetSafeCmd(t)) {
			errs = append(errs, rule.NewFinding(t.Line, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type commandHasChanges struct{ rule.Meta }

func NewCommandHasChanges() rule.Rule {
	return &commandHasChanges{rule.Meta{
		ID:          "ANS111",
		Description: "Commands should be idempotent",
		HelpText: "commands should only read while using `changed_when` or try to be " +
			"idempotent while using controls like `creates`, `removes` or `when`",
		Version: "0.1",
		Types:   []candidate.Kind{candidate.KindPlaybook, candidate.KindTask},
	}}
}

func (r *commandHasChanges) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		if !rule.IsCommand(t) {
			continue
		}
		if t.Has("changed_when") || t.Has("when") || (t.BlockMeta != nil && t.BlockMeta.Has("when")) {
			continue
		}
		if t.Action.Has("creates") || t.Action.Has("removes") {
			continue
		}
		errs = append(errs, rule.NewFinding(t.Line, r.HelpText))
	}
	return rule.NewResult(c.Path, errs)
}

type commandInsteadOfArgument struct{ rule.Meta }

func NewCommandInsteadOfArgument() rule.Rule {
	return &commandInsteadOfArgument{rule.Meta{
		ID:          "ANS117",
		Description: "Commands should not be used in place of module arguments",
		HelpText:    "%s used in place of file modules argument %s",
		Version:     "0.2",
		Types:       taskKinds,
	}}
}

func (r *commandInsteadOfArgument) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		if !rule.IsCommand(t) || rule.GetFirstCmdArg(t) == "" {
			continue
		}
		executable := rule.GetExecutable(t)
		if arg, ok := argumentReplacements[executable]; ok && warnEnabled(t) {
			errs = append(errs, rule.NewFinding(t.Line, fmt.Sprintf(r.HelpText, executable, arg),
				rule.Label{Key: "executable", Value: executable}))
		}
	}
	return rule.NewResult(c.Path, errs)
}

var (
	modeModules = []string{"archive", "assemble", "copy", "file", "replace", "template"}
	// createModules maps modules that may create files to their default for `create`.
	createModules   = map[string]bool{"blockinfile": false, "htpasswd": true, "ini_file": true, "lineinfile": false}
	preserveModules = []string{"copy", "template"}
)

type filePermissionMissing struct{ rule.Meta }

func NewFilePermissionMissing() rule.Rule {
	return &filePermissionMissing{rule.Meta{
		ID:          "ANS118",
		Description: "File permissions unset or incorrect",
		HelpText:    "`mode` parameter should set permissions explicitly (e.g. `mode: 0644`) to avoid unexpected file permissions",
		Types:       taskKinds,
	}}
}

func (r *filePermissionMissing) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		if modeMissing(t.Action) {
			errs = append(errs, rule.NewFinding(t.Line, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}

func modeMissing(a yamlhelper.Action) bool {
	createDefault, creates := createModules[a.Module]
	if !config.Contains(modeModules, a.Module) && !creates {
		return false
	}

	mode, hasMode := a.Get("mode")
	if hasMode && mode == nil {
		hasMode = false
	}
	if yamlhelper.ScalarString(mode) == "preserve" && !config.Contains(preserveModules, a.Module) {
		return true
	}

	if creates {
		create := createDefault
		if v, ok := a.Get("create"); ok {
			create = isTrue(v)
		}
		return create && !hasMode
	}

	state := "file"
	if a.Has("state") {
		state = a.GetString("state")
	}
	switch {
	case bracesRe.MatchString(state), state == "absent", state == "link":
		return false
	case isTrue(mustParam(a, "recurse")):
		return false
	case a.Module == "file" && state == "file":
		return false
	case a.Module == "replace" && !hasMode:
		return false
	}
	return !hasMode
}

func mustParam(a yamlhelper.Action, key string) any {
	v, _ := a.Get(key)
	return v
}

type filePermissionOctal struct{ rule.Meta }

func NewFilePermissionOctal() rule.Rule {
	return &filePermissionOctal{rule.Meta{
		ID:          "ANS119",
		Description: "Numeric file permissions without a leading zero can behave unexpectedly",
		HelpText:    "`mode: %d` should be strings with a leading zero `mode: \"0%d\"`",
		Types:       taskKinds,
	}}
}

func (r *filePermissionOctal) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		if !config.Contains(permissionModules, t.Action.Module) {
			continue
		}
		v, _ := t.Action.Get("mode")
		mode, ok := v.(int)
		if ok && invalidPermission(mode) {
			errs = append(errs, rule.NewFinding(t.Line, fmt.Sprintf(r.HelpText, mode, mode)))
		}
	}
	return rule.NewResult(c.Path, errs)
}

// invalidPermission reports modes that are unlikely to be meant as decimal:
// write without read, or a class more generous than the one before it.
func invalidPermission(mode int) bool {
	user := (mode >> 6) % 8
	group := (mode >> 3) % 8
	other := mode % 8
	userExec := user%2 == 1

	otherWriteWithoutRead := other != 0 && other < 4 && !(other == 1 && userExec)
	groupWriteWithoutRead := group != 0 && group < 4 && !(group == 1 && userExec)
	userWriteWithoutRead := user != 0 && user < 4 && user != 1

	return otherWriteWithoutRead ||
		groupWriteWithoutRead ||
		userWriteWithoutRead ||
		other > group ||
		other > user ||
		group > user
}

type nativeYaml struct{ rule.Meta }

func NewNativeYaml() rule.Rule {
	return &nativeYaml{rule.Meta{
		ID:          "YML108",
		Description: "Use YAML format for tasks and handlers rather than key=value",
		HelpText:    "task arguments appear to be in key value rather than YAML format",
		Version:     "0.1",
		Types:       taskKinds,
	}}
}

func (r *nativeYaml) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetActionTasks(c, cfg)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, task := range tasks {
		normalized, taskErrs := rule.GetNormalizedTask(task, c, cfg)
		if len(taskErrs) > 0 {
			errs = append(errs, taskErrs...)
			break
		}

		raw, ok := task.Get(normalized.Action.Module)
		s, isString := raw.(string)
		if !ok || !isString || s == "" {
			continue
		}
		if !sameFields(withoutContinuations(s), normalized.Action.Args) {
			errs = append(errs, rule.NewFinding(normalized.Line, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}

func withoutContinuations(s string) []string {
	var out []string
	for _, f := range yamlhelper.SplitArgs(s) {
		if f != "\\" {
			out = append(out, f)
		}
	}
	return out
}

func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
