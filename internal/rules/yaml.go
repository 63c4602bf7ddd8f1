package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

// yamllintRule runs one yamllint rule with the fragment configured for it.
type yamllintRule struct {
	rule.Meta
	name    string
	options func(cfg *config.Config) string
}

func newYamllintRule(id, description, name string, options func(cfg *config.Config) string) rule.Rule {
	return &yamllintRule{
		Meta: rule.Meta{
			ID:          id,
			Description: description,
			Version:     "0.1",
			Types:       yamlKinds,
		},
		name:    name,
		options: options,
	}
}

func (r *yamllintRule) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	conf := fmt.Sprintf("rules: {%s: %s}", r.name, r.options(cfg))
	return rule.NewResult(c.Path, rule.RunYamllint(c, conf))
}

func NewYamlEmptyLines() rule.Rule {
	return newYamllintRule("YML101", "YAML should not contain unnecessarily empty lines", "empty-lines",
		func(cfg *config.Config) string { return cfg.Yamllint.EmptyLines })
}

func NewYamlIndent() rule.Rule {
	return newYamllintRule("YML102", "YAML should be correctly indented", "indentation",
		func(cfg *config.Config) string { return cfg.Yamllint.Indentation })
}

func NewYamlHyphens() rule.Rule {
	return newYamllintRule("YML103", "YAML should use consistent number of spaces after hyphens", "hyphens",
		func(cfg *config.Config) string { return cfg.Yamllint.Hyphens })
}

func NewYamlDocumentStart() rule.Rule {
	return newYamllintRule("YML104", "YAML document start marker should match configuration", "document-start",
		func(cfg *config.Config) string { return cfg.Yamllint.DocumentStart })
}

func NewYamlColons() rule.Rule {
	return newYamllintRule("YML105", "YAML should use consistent number of spaces around colons", "colons",
		func(cfg *config.Config) string { return cfg.Yamllint.Colons })
}

func NewYamlDocumentEnd() rule.Rule {
	return newYamllintRule("YML109", "YAML document end marker should match configuration", "document-end",
		func(cfg *config.Config) string { return cfg.Yamllint.DocumentEnd })
}

func NewYamlOctalValues() rule.Rule {
	return newYamllintRule("YML110", "YAML implicit/explicit octal value should match configuration", "octal-values",
		func(cfg *config.Config) string { return cfg.Yamllint.OctalValues })
}

type yamlFile struct{ rule.Meta }

func NewYamlFile() rule.Rule {
	return &yamlFile{rule.Meta{
		ID:          "YML106",
		Description: "Roles file should be in yaml format",
		HelpText:    "file does not have a .yml extension",
		Version:     "0.1",
		Types:       taskKinds,
	}}
}

func (r *yamlFile) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	info, err := os.Stat(c.Path)
	ext := filepath.Ext(c.Path)
	if err != nil || !info.Mode().IsRegular() || (ext != ".yml" && ext != ".yaml") {
		return rule.NewResult(c.Path, []rule.Finding{rule.NewFinding(0, r.HelpText)})
	}
	_, errs := rule.GetRawYAML(c, cfg)
	return rule.NewResult(c.Path, errs)
}

type yamlHasContent struct{ rule.Meta }

func NewYamlHasContent() rule.Rule {
	return &yamlHasContent{rule.Meta{
		ID:          "YML107",
		Description: "Files should contain useful content",
		HelpText:    "the file appears to have no useful content",
		Version:     "0.1",
		Types: []candidate.Kind{
			candidate.KindPlaybook, candidate.KindTask, candidate.KindHandler,
			candidate.KindRoleVars, candidate.KindMeta,
		},
	}}
}

func (r *yamlHasContent) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	lines, errs := rule.GetNormalizedYAML(c, cfg, nil)
	if len(errs) == 0 && !c.Faulty && len(lines) == 0 {
		errs = append(errs, rule.NewFinding(0, r.HelpText))
	}
	return rule.NewResult(c.Path, errs)
}
