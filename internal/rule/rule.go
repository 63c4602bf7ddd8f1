// Package rule defines the contract every check implements and the helpers
// rules use to read candidates.
package rule

import (
	"fmt"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

// Meta describes a rule.
type Meta struct {
	ID          string
	Description string
	HelpText    string
	// Version is the minimum standards version; empty marks a best practice.
	Version string
	Types   []candidate.Kind
}

// Info returns m itself so rules can embed Meta to satisfy Rule.
func (m Meta) Info() Meta {
	return m
}

// Applies reports whether the rule handles candidates of kind k.
func (m Meta) Applies(k candidate.Kind) bool {
	for _, t := range m.Types {
		if t == k {
			return true
		}
	}
	return false
}

// Rule is a single check. Check must always return a non-nil result.
type Rule interface {
	Info() Meta
	Check(c *candidate.Candidate, cfg *config.Config) *Result
}

// Label is one structured key/value attached to a finding.
type Label struct {
	Key   string
	Value any
}

// Labels keeps insertion order.
type Labels []Label

// With returns labels with key set to value, replacing an existing entry.
func (l Labels) With(key string, value any) Labels {
	out := make(Labels, 0, len(l)+1)
	replaced := false
	for _, label := range l {
		if label.Key == key {
			label.Value = value
			replaced = true
		}
		out = append(out, label)
	}
	if !replaced {
		out = append(out, Label{Key: key, Value: value})
	}
	return out
}

func (l Labels) Get(key string) (any, bool) {
	for _, label := range l {
		if label.Key == key {
			return label.Value, true
		}
	}
	return nil, false
}

// KeyValues flattens labels for hclog.
func (l Labels) KeyValues() []any {
	out := make([]any, 0, len(l)*2)
	for _, label := range l {
		out = append(out, label.Key, label.Value)
	}
	return out
}

// Finding is one reported problem. Line 0 means the whole file.
type Finding struct {
	Line    int
	Message string
	Labels  Labels
}

// NewFinding builds a finding with optional extra labels.
func NewFinding(line int, message string, labels ...Label) Finding {
	return Finding{Line: line, Message: message, Labels: Labels(labels)}
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("%d: %s", f.Line, f.Message)
	}
	return f.Message
}

// Result is the output of one rule on one candidate.
type Result struct {
	Path     string
	Findings []Finding
}

func NewResult(path string, findings []Finding) *Result {
	return &Result{Path: path, Findings: findings}
}
