// Package review runs rules against candidates and sorts their findings into tiers.
package review

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/registry"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/internal/version"
	"github.com/scan-io-git/ansible-later/pkg/shared"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
	"github.com/scan-io-git/ansible-later/pkg/shared/errors"
)

const (
	LevelError   = "error"
	LevelWarning = "warning"
)

// Entry is one finding after tier classification.
type Entry struct {
	RuleID      string
	Description string
	Tier        Tier
	Level       string
	Path        string
	Line        int
	Message     string
	Labels      rule.Labels
}

// Reviewer holds the active rule set of a run. It is safe for concurrent use.
type Reviewer struct {
	cfg    *config.Config
	rules  []rule.Rule
	latest string
	logger hclog.Logger

	mu      sync.Mutex
	entries []Entry
}

// New keeps the rules of reg selected by the include and exclude filters of cfg.
func New(cfg *config.Config, reg *registry.Registry, logger hclog.Logger) *Reviewer {
	active := reg.Filter(cfg.Rules.IncludeFilter, cfg.Rules.ExcludeFilter)
	return &Reviewer{
		cfg:    cfg,
		rules:  active,
		latest: registry.LatestVersion(active, version.Baseline),
		logger: logger,
	}
}

// DefaultJobs leaves one core to the main process.
func DefaultJobs() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// ResolveVersion sets the standards version of c: the configured version,
// then the declared marker, then the latest version among the active rules.
func (r *Reviewer) ResolveVersion(c *candidate.Candidate) {
	if r.cfg.Rules.Version != "" {
		c.Version, c.VersionPinned = r.cfg.Rules.Version, true
		return
	}
	c.DeclaredVersion = candidate.FindDeclaredVersion(c.Path, c.Kind)
	if c.DeclaredVersion != "" {
		c.Version, c.VersionPinned = c.DeclaredVersion, true
		return
	}
	c.Version, c.VersionPinned = r.latest, false
	if candidate.ExpectsVersion(c.Kind) {
		r.logger.Warn("standards version not set, using latest standards version", "path", c.Path, "version", c.Version)
	}
}

// Review runs every applicable rule on c and returns the number of errors.
func (r *Reviewer) Review(c *candidate.Candidate) int {
	if c.Binary || c.Vault {
		r.logger.Info("skipping file", "path", c.Path, "binary", c.Binary, "vault", c.Vault)
		return 0
	}
	r.ResolveVersion(c)
	r.logger.Debug("reviewing file", "path", c.Path, "kind", c.Kind.String(), "version", c.Version)

	count := 0
	for _, rl := range r.rules {
		meta := rl.Info()
		if !meta.Applies(c.Kind) {
			continue
		}

		res := rl.Check(c, r.cfg)
		if res == nil {
			r.logger.Error("rule returned an empty result object, check failed",
				"rid", meta.ID, "path", c.Path, "fatal", true, "error", errors.NewRuleUsageError(meta.ID))
			continue
		}

		if len(res.Findings) == 0 {
			r.logger.Debug(fmt.Sprintf("%s'%s' met: %s", formatID(meta.ID), meta.Description, c.Path),
				"tag", "review", "rule", meta.Description, "file", c.Path, "passed", true)
			continue
		}
		for _, f := range res.Findings {
			if r.report(meta, c, f) == LevelError {
				count++
			}
		}
	}
	return count
}

func (r *Reviewer) report(meta rule.Meta, c *candidate.Candidate, f rule.Finding) string {
	tier := ClassifyTier(meta.Version, c.Version)
	level := LevelWarning
	if tier == TierViolation && !config.Contains(r.cfg.Rules.WarningFilter, meta.ID) {
		level = LevelError
	}

	labels := rule.Labels{
		{Key: "tag", Value: "review"},
		{Key: "rule", Value: meta.Description},
		{Key: "file", Value: c.Path},
		{Key: "passed", Value: false},
	}
	if meta.ID != "" {
		labels = labels.With("rid", meta.ID)
	}
	if f.Line > 0 {
		labels = labels.With("line", f.Line)
	}
	for _, l := range f.Labels {
		labels = labels.With(l.Key, l.Value)
	}

	msg := fmt.Sprintf("%s%s '%s' not met: %s:%s", formatID(meta.ID), tier, meta.Description, c.Path, f)
	if level == LevelError {
		r.logger.Error(msg, labels.KeyValues()...)
	} else {
		r.logger.Warn(msg, labels.KeyValues()...)
	}

	r.mu.Lock()
	r.entries = append(r.entries, Entry{
		RuleID:      meta.ID,
		Description: meta.Description,
		Tier:        tier,
		Level:       level,
		Path:        c.Path,
		Line:        f.Line,
		Message:     f.Message,
		Labels:      f.Labels,
	})
	r.mu.Unlock()
	return level
}

func formatID(id string) string {
	if id == "" {
		return ""
	}
	return "[" + id + "] "
}

// ReviewAll reviews candidates with at most jobs reviews in flight and sums the errors.
// A panicking review is logged and counted as one error.
func (r *Reviewer) ReviewAll(cands []*candidate.Candidate, jobs int) int {
	var total atomic.Int64
	shared.ForEveryWithBoundedGoroutines(jobs, cands, func(_ int, c *candidate.Candidate) {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("review aborted", "path", c.Path, "panic", fmt.Sprint(p))
				total.Add(1)
			}
		}()
		total.Add(int64(r.Review(c)))
	})
	return int(total.Load())
}

// Entries returns the classified findings collected so far, grouped by path.
// Within a path findings keep rule order.
func (r *Reviewer) Entries() []Entry {
	r.mu.Lock()
	out := append([]Entry(nil), r.entries...)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

// Rules returns the active rule set.
func (r *Reviewer) Rules() []rule.Rule {
	return r.rules
}
