package rules

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/internal/yamlhelper"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

var metaKinds = []candidate.Kind{candidate.KindMeta}

var galaxyInfoKeys = []string{"author", "description", "min_ansible_version", "platforms"}

type metaMain struct{ rule.Meta }

func NewMetaMain() rule.Rule {
	return &metaMain{rule.Meta{
		ID:          "ANS102",
		Description: "Roles must contain suitable meta/main.yml",
		HelpText:    "file should contain `%s` key",
		Version:     "0.1",
		Types:       metaKinds,
	}}
}

func (r *metaMain) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	content, errs := rule.GetRawYAML(c, cfg)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	doc, _ := content.(map[string]any)
	galaxyInfo, hasGalaxyInfo := doc["galaxy_info"]
	_, hasDependencies := doc["dependencies"]

	missing := func(key string) {
		errs = append(errs, rule.NewFinding(0, fmt.Sprintf(r.HelpText, key), rule.Label{Key: "key", Value: key}))
	}
	if !hasGalaxyInfo {
		missing("galaxy_info")
	}
	if !hasDependencies {
		missing("dependencies")
	}
	if hasGalaxyInfo {
		for _, key := range galaxyInfoKeys {
			if !anyTruthy(nestedLookup(key, galaxyInfo)) {
				missing(key)
			}
		}
	}
	return rule.NewResult(c.Path, errs)
}

// anyTruthy reports whether values contain a non-empty value.
func anyTruthy(values []any) bool {
	for _, v := range values {
		switch t := v.(type) {
		case nil:
		case string:
			if t != "" {
				return true
			}
		case []any:
			if len(t) > 0 {
				return true
			}
		case map[string]any:
			if len(t) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

var metaDefaults = []struct{ field, value string }{
	{"author", "your name"},
	{"description", "your description"},
	{"company", "your company (optional)"},
	{"license", "license (GPLv2, CC-BY, etc)"},
	{"license", "license (GPL-2.0-or-later, MIT, etc)"},
}

type metaChangeFromDefault struct{ rule.Meta }

func NewMetaChangeFromDefault() rule.Rule {
	return &metaChangeFromDefault{rule.Meta{
		ID:          "ANS121",
		Description: "Roles meta/main.yml default values should be changed",
		HelpText:    "meta/main.yml default values should be changed for: `%s`",
		Types:       metaKinds,
	}}
}

func (r *metaChangeFromDefault) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	content, errs := rule.GetRawYAML(c, cfg)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, d := range metaDefaults {
		for _, v := range nestedLookup(d.field, content) {
			if s, ok := v.(string); ok && s == d.value {
				errs = append(errs, rule.NewFinding(0, fmt.Sprintf(r.HelpText, d.field+": "+d.value)))
				break
			}
		}
	}
	return rule.NewResult(c.Path, errs)
}

type scmInSrc struct{ rule.Meta }

func NewScmInSrc() rule.Rule {
	return &scmInSrc{rule.Meta{
		ID:          "ANS105",
		Description: "Use `scm:` key rather than `src: scm+url`",
		HelpText:    "usage of `src: scm+url` not recommended",
		Version:     "0.1",
		Types:       []candidate.Kind{candidate.KindRolesfile},
	}}
}

func (r *scmInSrc) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	doc, errs := rule.GetTasks(c, cfg)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	roles, _ := doc.([]any)
	for _, item := range roles {
		role, ok := item.(*yamlhelper.Map)
		if !ok {
			continue
		}
		if src := role.GetString("src"); strings.Contains(src, "+") {
			errs = append(errs, rule.NewFinding(role.Line, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}
