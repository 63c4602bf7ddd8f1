// Package registry collects the rules of a review run: the built-in set and
// rules served by external plugins.
package registry

import (
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/internal/version"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
	"github.com/scan-io-git/ansible-later/pkg/shared/errors"
)

// Registry holds rules in registration order.
type Registry struct {
	rules   []rule.Rule
	plugins []*pluginClient
}

func New() *Registry {
	return &Registry{}
}

// Register appends rules. Uniqueness is checked by Validate.
func (r *Registry) Register(rules ...rule.Rule) {
	r.rules = append(r.rules, rules...)
}

// Validate fails with a DuplicateRuleError when two rules share a non-empty id.
func (r *Registry) Validate() error {
	seen := make(map[string]int)
	for _, rl := range r.rules {
		if id := rl.Info().ID; id != "" {
			seen[id]++
		}
	}

	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	if len(dups) > 0 {
		return errors.NewDuplicateRuleError(dups)
	}
	return nil
}

func (r *Registry) Rules() []rule.Rule {
	return r.rules
}

// Get returns the first rule with the given id.
func (r *Registry) Get(id string) (rule.Rule, bool) {
	for _, rl := range r.rules {
		if rl.Info().ID == id {
			return rl, true
		}
	}
	return nil, false
}

// Filter returns the rules selected by the include and exclude id lists.
// An empty include list selects every rule.
func (r *Registry) Filter(include, exclude []string) []rule.Rule {
	var out []rule.Rule
	for _, rl := range r.rules {
		id := rl.Info().ID
		if len(include) > 0 && !config.Contains(include, id) {
			continue
		}
		if config.Contains(exclude, id) {
			continue
		}
		out = append(out, rl)
	}
	return out
}

// LatestVersion is the highest version declared by rules, or fallback if none declares one.
func LatestVersion(rules []rule.Rule, fallback string) string {
	versions := make([]string, 0, len(rules))
	for _, rl := range rules {
		if v := rl.Info().Version; v != "" {
			versions = append(versions, v)
		}
	}
	return version.Latest(versions, fallback)
}

// Load builds the registry for cfg: built-in rules when rules.buildin is set,
// then plugin rules from every rules.dir entry. The result is validated.
func Load(cfg *config.Config, builtin []rule.Rule, logger hclog.Logger) (*Registry, error) {
	r := New()
	if cfg.Rules.Buildin {
		r.Register(builtin...)
	}

	for _, dir := range cfg.Rules.Dir {
		if err := r.loadPluginDir(dir, logger); err != nil {
			r.Close()
			return nil, err
		}
	}

	if err := r.Validate(); err != nil {
		r.Close()
		return nil, err
	}
	logger.Debug("rules loaded", "count", len(r.rules), "plugins", len(r.plugins))
	return r, nil
}

// Close stops every plugin process started by Load.
func (r *Registry) Close() {
	for _, p := range r.plugins {
		p.kill()
	}
	r.plugins = nil
}
