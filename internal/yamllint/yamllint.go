// Package yamllint is a small line-based YAML style checker implementing a
// subset of yamllint rules with yamllint's option names and messages.
package yamllint

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Problem is one style violation.
type Problem struct {
	Line int
	Rule string
	Desc string
}

func (p Problem) String() string {
	return fmt.Sprintf("%d: %s (%s)", p.Line, p.Desc, p.Rule)
}

type checker func(doc *document, opts options) []Problem

var checkers = map[string]checker{
	"empty-lines":    checkEmptyLines,
	"document-start": checkDocumentStart,
	"document-end":   checkDocumentEnd,
	"colons":         checkColons,
	"hyphens":        checkHyphens,
	"indentation":    checkIndentation,
	"octal-values":   checkOctalValues,
}

type ruleConf struct {
	Rules map[string]any `yaml:"rules"`
}

// Run lints content with conf, a YAML fragment such as
// "rules: {empty-lines: {max: 1}}". Rules set to "disable" are skipped.
func Run(content []byte, conf string) ([]Problem, error) {
	var rc ruleConf
	if err := yaml.Unmarshal([]byte(conf), &rc); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	names := make([]string, 0, len(rc.Rules))
	for name := range rc.Rules {
		if _, ok := checkers[name]; !ok {
			return nil, fmt.Errorf("invalid config: no such rule: %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	doc := newDocument(content)
	var problems []Problem
	for _, name := range names {
		opts, enabled, err := parseOptions(rc.Rules[name])
		if err != nil {
			return nil, fmt.Errorf("invalid config: rule %q: %w", name, err)
		}
		if !enabled {
			continue
		}
		for _, p := range checkers[name](doc, opts) {
			p.Rule = name
			problems = append(problems, p)
		}
	}

	sort.SliceStable(problems, func(i, j int) bool {
		return problems[i].Line < problems[j].Line
	})
	return problems, nil
}

type options map[string]any

func parseOptions(raw any) (options, bool, error) {
	switch t := raw.(type) {
	case nil:
		return options{}, true, nil
	case string:
		switch t {
		case "enable":
			return options{}, true, nil
		case "disable":
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("unknown value %q", t)
	case map[string]any:
		return options(t), true, nil
	}
	return nil, false, fmt.Errorf("options must be a mapping")
}

func (o options) intOpt(key string, def int) int {
	if v, ok := o[key].(int); ok {
		return v
	}
	return def
}

func (o options) boolOpt(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

// value returns the option rendered as text, "" when unset.
func (o options) value(key string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// document is content split into lines with per-line context.
type document struct {
	lines []string
	// scalar marks lines belonging to a block scalar (| or >) body.
	scalar []bool
	// flow marks continuation lines of a multi-line flow collection.
	flow []bool
}

func newDocument(content []byte) *document {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	d := &document{}
	if text != "" || len(content) > 0 {
		d.lines = strings.Split(text, "\n")
	}
	d.scalar = make([]bool, len(d.lines))
	d.flow = make([]bool, len(d.lines))

	scalarIndent := -1
	flowDepth := 0
	for i, line := range d.lines {
		if scalarIndent >= 0 {
			if isBlank(line) || indentOf(line) > scalarIndent {
				d.scalar[i] = true
				continue
			}
			scalarIndent = -1
		}
		if flowDepth > 0 {
			d.flow[i] = true
		}
		code := stripComment(line)
		flowDepth += flowDelta(code)
		if flowDepth < 0 {
			flowDepth = 0
		}
		if opensBlockScalar(code) {
			scalarIndent = indentOf(line)
		}
	}
	return d
}

// content reports whether line i carries YAML structure worth checking.
func (d *document) content(i int) bool {
	return !d.scalar[i] && !isBlank(d.lines[i]) && !isComment(d.lines[i])
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// stripComment removes a trailing comment outside of quotes.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			if i == 0 || line[i-1] == ' ' || line[i-1] == ':' || line[i-1] == '[' || line[i-1] == '{' || line[i-1] == ',' || line[i-1] == '-' {
				quote = c
			}
		case c == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t'):
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return strings.TrimRight(line, " \t")
}

func opensBlockScalar(code string) bool {
	trimmed := strings.TrimSpace(code)
	var value string
	switch {
	case strings.HasPrefix(trimmed, "- ") && !strings.Contains(trimmed, ": "):
		value = strings.TrimSpace(trimmed[2:])
	default:
		idx := strings.LastIndex(trimmed, ": ")
		if idx < 0 {
			return false
		}
		value = strings.TrimSpace(trimmed[idx+2:])
	}
	if value == "" || (value[0] != '|' && value[0] != '>') {
		return false
	}
	return strings.Trim(value[1:], "+-0123456789") == ""
}

func flowDelta(code string) int {
	delta := 0
	var quote byte
	jinja := 0
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '{' && i+1 < len(code) && (code[i+1] == '{' || code[i+1] == '%'):
			jinja++
			i++
		case (c == '}' || c == '%') && i+1 < len(code) && code[i+1] == '}' && jinja > 0:
			jinja--
			i++
		case jinja > 0:
		case c == '[' || c == '{':
			delta++
		case c == ']' || c == '}':
			delta--
		}
	}
	return delta
}
