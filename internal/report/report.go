// Package report writes review results in machine-readable formats.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/ansible-later/internal/review"
	"github.com/scan-io-git/ansible-later/internal/rule"
)

const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatSarif = "sarif"

	toolName = "ansible-later"
	toolURI  = "https://github.com/scan-io-git/ansible-later"
)

// Formats lists the values accepted by --format.
var Formats = []string{FormatText, FormatJSON, FormatSarif}

// NewRunID returns a random identifier for one review run.
func NewRunID() string {
	return uuid.New().String()
}

// Finding is the JSON shape of one classified finding.
type Finding struct {
	RuleID      string            `json:"rule_id,omitempty"`
	Description string            `json:"description"`
	Tier        string            `json:"tier"`
	Level       string            `json:"level"`
	Path        string            `json:"path"`
	Line        int               `json:"line,omitempty"`
	Message     string            `json:"message"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Summary is the JSON report.
type Summary struct {
	RunID    string    `json:"run_id"`
	Errors   int       `json:"errors"`
	Findings []Finding `json:"findings"`
}

func NewSummary(runID string, errors int, entries []review.Entry) Summary {
	s := Summary{RunID: runID, Errors: errors, Findings: make([]Finding, 0, len(entries))}
	for _, e := range entries {
		f := Finding{
			RuleID:      e.RuleID,
			Description: e.Description,
			Tier:        e.Tier.String(),
			Level:       e.Level,
			Path:        e.Path,
			Line:        e.Line,
			Message:     e.Message,
		}
		if len(e.Labels) > 0 {
			f.Labels = make(map[string]string, len(e.Labels))
			for _, l := range e.Labels {
				f.Labels[l.Key] = fmt.Sprint(l.Value)
			}
		}
		s.Findings = append(s.Findings, f)
	}
	return s
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling the report: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// NewSarifReport builds a SARIF 2.1.0 log with one run holding every active rule.
func NewSarifReport(runID string, rules []rule.Rule, entries []review.Entry) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	run.PropertyBag = *sarif.NewPropertyBag()
	run.Add("run_id", runID)

	for _, rl := range rules {
		meta := rl.Info()
		if meta.ID == "" {
			continue
		}
		version := meta.Version
		if version == "" {
			version = "best practice"
		}
		descriptor := run.AddRule(meta.ID).WithDescription(meta.Description)
		descriptor.PropertyBag = *sarif.NewPropertyBag()
		descriptor.Add("version", version)
	}

	for _, e := range entries {
		region := sarif.NewRegion()
		if e.Line > 0 {
			region = region.WithStartLine(e.Line)
		}
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(e.Path)).
				WithRegion(region),
		)
		run.AddDistinctArtifact(e.Path)

		ruleID := e.RuleID
		if ruleID == "" {
			ruleID = e.Description
		}
		result := sarif.NewRuleResult(ruleID).
			WithMessage(sarif.NewTextMessage(e.Message)).
			WithLevel(e.Level).
			WithLocations([]*sarif.Location{location})
		result.PropertyBag = *sarif.NewPropertyBag()
		result.Add("tier", e.Tier.String())
		run.AddResult(result)
	}

	report.AddRun(run)
	return report, nil
}

// WriteSarif writes the SARIF log of a run.
func WriteSarif(w io.Writer, runID string, rules []rule.Rule, entries []review.Entry) error {
	report, err := NewSarifReport(runID, rules, entries)
	if err != nil {
		return err
	}
	return report.PrettyWrite(w)
}
