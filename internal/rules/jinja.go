package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/internal/yamlhelper"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

var (
	bracesRe             = regexp.MustCompile(`{{(.*?)}}`)
	jinjaBlockRe         = regexp.MustCompile(`({{|{%)(.*?)(}}|%})`)
	emptyStringCompareRe = regexp.MustCompile(`[=!]= ?["']["']`)
	literalBoolCompareRe = regexp.MustCompile(`[=!]= ?(True|true|False|false)`)
	literalBoolRe        = regexp.MustCompile(`(?i)(?:[=!]=|:)\s*(true|false|yes|no|on|off)\s*$`)
	filterArgsRe         = regexp.MustCompile(`\(.+\)`)
	nestedJinjaRe        = regexp.MustCompile(`{{(?:[^{}]*)?[^'"]{{`)
)

// jinjaLines narrows template lines down to the content of their Jinja2 blocks.
func jinjaLines(c *candidate.Candidate, lines []yamlhelper.Line) []yamlhelper.Line {
	if c.Kind != candidate.KindTemplate {
		return lines
	}
	var out []yamlhelper.Line
	for _, line := range lines {
		for _, m := range jinjaBlockRe.FindAllStringSubmatch(line.Text, -1) {
			out = append(out, yamlhelper.Line{Number: line.Number, Text: m[2]})
		}
	}
	return out
}

// braceItems returns the inner text of every {{ }} expression with its line.
func braceItems(lines []yamlhelper.Line, skipUnsafe bool) []yamlhelper.Line {
	var out []yamlhelper.Line
	for _, line := range lines {
		if skipUnsafe && strings.Contains(line.Text, "!unsafe") {
			continue
		}
		for _, m := range bracesRe.FindAllStringSubmatch(line.Text, -1) {
			out = append(out, yamlhelper.Line{Number: line.Number, Text: m[1]})
		}
	}
	return out
}

func countSpaces(s string) (leading, trailing int) {
	trimmed := strings.TrimLeft(s, " ")
	leading = len(s) - len(trimmed)
	if trimmed == "" {
		return leading, 0
	}
	trailing = len(trimmed) - len(strings.TrimRight(trimmed, " "))
	return leading, trailing
}

type bracesSpaces struct{ rule.Meta }

func NewBracesSpaces() rule.Rule {
	return &bracesSpaces{rule.Meta{
		ID:          "ANS104",
		Description: "YAML should use consistent number of spaces around variables",
		HelpText:    "no suitable numbers of spaces (min: %d max: %d)",
		Version:     "0.1",
		Types:       yamlKinds,
	}}
}

func (r *bracesSpaces) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	lines, errs := rule.GetNormalizedYAML(c, cfg, nil)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	lo := cfg.Ansible.DoubleBraces.MinSpacesInside
	hi := cfg.Ansible.DoubleBraces.MaxSpacesInside
	inRange := func(n int) bool { return n >= lo && n <= hi }

	for _, item := range braceItems(lines, true) {
		leading, trailing := countSpaces(item.Text)
		if !inRange(leading) || !inRange(trailing) {
			errs = append(errs, rule.NewFinding(item.Number, fmt.Sprintf(r.HelpText, lo, hi)))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type compareToEmptyString struct{ rule.Meta }

func NewCompareToEmptyString() rule.Rule {
	return &compareToEmptyString{rule.Meta{
		ID:          "ANS112",
		Description: `Don't compare to empty string ""`,
		HelpText:    "use `when: var` rather than `when: var !=` (or conversely `when: not var`)",
		Version:     "0.1",
		Types:       templateKinds,
	}}
}

func (r *compareToEmptyString) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	return matchLines(c, cfg, emptyStringCompareRe, r.HelpText)
}

type compareToLiteralBool struct{ rule.Meta }

func NewCompareToLiteralBool() rule.Rule {
	return &compareToLiteralBool{rule.Meta{
		ID:          "ANS113",
		Description: "Don't compare to True or False",
		HelpText:    "use `when: var` rather than `when: var == True` (or conversely `when: not var`)",
		Version:     "0.1",
		Types:       templateKinds,
	}}
}

func (r *compareToLiteralBool) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	return matchLines(c, cfg, literalBoolCompareRe, r.HelpText)
}

func matchLines(c *candidate.Candidate, cfg *config.Config, re *regexp.Regexp, help string) *rule.Result {
	lines, errs := rule.GetNormalizedYAML(c, cfg, nil)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, line := range jinjaLines(c, lines) {
		if re.MatchString(line.Text) {
			errs = append(errs, rule.NewFinding(line.Number, help))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type literalBoolFormat struct{ rule.Meta }

func NewLiteralBoolFormat() rule.Rule {
	return &literalBoolFormat{rule.Meta{
		ID:          "ANS114",
		Description: "Literal bools should be consistent",
		HelpText:    "literal bools should be written as `%s`",
		Version:     "0.1",
		Types:       varsKinds,
	}}
}

func (r *literalBoolFormat) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	lines, errs := rule.GetNormalizedYAML(c, cfg, nil)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	allowed := cfg.Ansible.LiteralBools
	for _, line := range lines {
		m := literalBoolRe.FindStringSubmatch(line.Text)
		if m != nil && !config.Contains(allowed, m[1]) {
			errs = append(errs, rule.NewFinding(line.Number,
				fmt.Sprintf(r.HelpText, strings.Join(allowed, ", ")),
				rule.Label{Key: "value", Value: m[1]}))
		}
	}
	return rule.NewResult(c.Path, errs)
}

type filterSeparation struct{ rule.Meta }

func NewFilterSeparation() rule.Rule {
	return &filterSeparation{rule.Meta{
		ID:          "ANS116",
		Description: "Jinja2 filters should be separated with spaces",
		HelpText:    "no suitable numbers of spaces (required: 1)",
		Version:     "0.1",
		Types:       varsKinds,
	}}
}

func (r *filterSeparation) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	lines, errs := rule.GetNormalizedYAML(c, cfg, nil)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, item := range braceItems(lines, false) {
		if !filtersSeparated(filterArgsRe.ReplaceAllString(item.Text, "(dummy)")) {
			errs = append(errs, rule.NewFinding(item.Number, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}

// filtersSeparated reports whether every single "|" in expr has exactly one
// space on each side. "||" is left alone.
func filtersSeparated(expr string) bool {
	for i := 0; i < len(expr); i++ {
		if expr[i] != '|' {
			continue
		}
		if i+1 < len(expr) && expr[i+1] == '|' {
			i++
			continue
		}
		if !singleSpace(expr, i-1, -1) || !singleSpace(expr, i+1, 1) {
			return false
		}
	}
	return true
}

func singleSpace(s string, pos, step int) bool {
	if pos < 0 || pos >= len(s) || s[pos] != ' ' {
		return false
	}
	next := pos + step
	return next >= 0 && next < len(s) && s[next] != ' '
}

type nestedJinja struct{ rule.Meta }

func NewNestedJinja() rule.Rule {
	return &nestedJinja{rule.Meta{
		ID:          "ANS123",
		Description: "Don't use nested Jinja2 pattern",
		HelpText:    "there should not be any nested jinja pattern like `{{ list_one + {{ list_two | max }} }}`",
		Types:       varsKinds,
	}}
}

func (r *nestedJinja) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	lines, errs := rule.GetNormalizedYAML(c, cfg, nil)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, line := range lines {
		if strings.Contains(line.Text, "!unsafe") {
			continue
		}
		for range nestedJinjaRe.FindAllString(line.Text, -1) {
			errs = append(errs, rule.NewFinding(line.Number, r.HelpText))
		}
	}
	return rule.NewResult(c.Path, errs)
}
