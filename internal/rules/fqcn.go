package rules

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

// builtinModules are the modules shipped in the ansible.builtin collection.
var builtinModules = []string{
	"add_host", "apt", "apt_key", "apt_repository", "assemble", "assert", "async_status",
	"blockinfile", "command", "copy", "cron", "debconf", "debug", "dnf", "dpkg_selections",
	"expect", "fail", "fetch", "file", "find", "gather_facts", "get_url", "getent", "git",
	"group", "group_by", "hostname", "import_playbook", "import_role", "import_tasks",
	"include", "include_role", "include_tasks", "include_vars", "iptables", "known_hosts",
	"lineinfile", "meta", "package", "package_facts", "pause", "ping", "pip", "raw", "reboot",
	"replace", "rpm_key", "script", "service", "service_facts", "set_fact", "set_stats",
	"setup", "shell", "slurp", "stat", "subversion", "systemd", "sysvinit", "tempfile",
	"template", "unarchive", "uri", "user", "wait_for", "wait_for_connection", "yum",
	"yum_repository",
}

type fqcnBuiltin struct{ rule.Meta }

func NewFQCNBuiltin() rule.Rule {
	return &fqcnBuiltin{rule.Meta{
		ID:          "ANS128",
		Description: "Module actions should use full qualified collection names",
		HelpText:    "use FQCN `%s` for module action `%s`",
		Types:       taskKinds,
	}}
}

func (r *fqcnBuiltin) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		module := t.Action.Module
		if strings.Contains(module, ".") || !config.Contains(builtinModules, module) {
			continue
		}
		alias := "ansible.builtin." + module
		errs = append(errs, rule.NewFinding(t.Line, fmt.Sprintf(r.HelpText, alias, module),
			rule.Label{Key: "module", Value: module}))
	}
	return rule.NewResult(c.Path, errs)
}
