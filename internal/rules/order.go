package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/internal/yamlhelper"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

// keyRank orders task and play keys: name first, block sections last,
// everything else in between keeping its written order.
func keyRank(key string) int {
	switch key {
	case "name":
		return 0
	case "block":
		return 2
	case "rescue":
		return 3
	case "always":
		return 4
	}
	return 1
}

// sortKeys reports whether m's keys are already in recommended order and returns that order.
func sortKeys(m *yamlhelper.Map) (bool, []string) {
	var keys []string
	for _, k := range m.Keys() {
		if !strings.HasPrefix(k, "_") {
			keys = append(keys, k)
		}
	}
	sorted := append([]string(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return keyRank(sorted[i]) < keyRank(sorted[j])
	})
	for i := range keys {
		if keys[i] != sorted[i] {
			return false, sorted
		}
	}
	return true, sorted
}

type keyOrder struct{ rule.Meta }

func NewKeyOrder() rule.Rule {
	return &keyOrder{rule.Meta{
		ID:          "ANS129",
		Description: "Check for recommended key order",
		HelpText:    "%s key order can be improved to `%s`",
		Types:       taskKinds,
	}}
}

func (r *keyOrder) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	tasks, errs := rule.GetNormalizedTasks(c, cfg, false)
	if len(errs) > 0 {
		return rule.NewResult(c.Path, errs)
	}

	for _, t := range tasks {
		if ok, keys := sortKeys(t.Raw); !ok {
			errs = append(errs, rule.NewFinding(t.Line, fmt.Sprintf(r.HelpText, "task", strings.Join(keys, ", "))))
		}
	}

	if c.Kind != candidate.KindPlaybook {
		return rule.NewResult(c.Path, errs)
	}

	doc, parseErrs := rule.GetTasks(c, cfg)
	if len(parseErrs) > 0 {
		return rule.NewResult(c.Path, parseErrs)
	}
	plays, _ := doc.([]any)
	for _, p := range plays {
		play, ok := p.(*yamlhelper.Map)
		if !ok {
			continue
		}
		if ok, keys := sortKeys(play); !ok {
			errs = append(errs, rule.NewFinding(play.Line, fmt.Sprintf(r.HelpText, "play", strings.Join(keys, ", "))))
		}
	}
	return rule.NewResult(c.Path, errs)
}
