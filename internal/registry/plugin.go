package registry

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/pkg/shared"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
	"github.com/scan-io-git/ansible-later/pkg/shared/errors"
	"github.com/scan-io-git/ansible-later/pkg/shared/files"
)

// Plugin executables have purely alphabetic names, e.g. "requiretags".
var pluginNameRe = regexp.MustCompile(`^[A-Za-z]+$`)

type pluginClient struct {
	path   string
	client *plugin.Client
	rules  shared.RulePlugin
}

func (p *pluginClient) kill() {
	p.client.Kill()
}

// pluginFiles lists the plugin executables of dir in name order.
func pluginFiles(dir string) ([]string, error) {
	expanded, err := files.ExpandPath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules directory %q: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !pluginNameRe.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(expanded, entry.Name())
		if files.IsExecutable(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (r *Registry) loadPluginDir(dir string, logger hclog.Logger) error {
	paths, err := pluginFiles(dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		p, err := startPlugin(path, logger)
		if err != nil {
			return errors.NewPluginLoadError(path, err)
		}
		r.plugins = append(r.plugins, p)

		infos, err := p.rules.Describe()
		if err != nil {
			return errors.NewPluginLoadError(path, err)
		}
		for _, info := range infos {
			r.Register(newPluginRule(info, p, logger))
		}
		logger.Debug("plugin loaded", "path", path, "rules", len(infos))
	}
	return nil
}

func startPlugin(path string, logger hclog.Logger) (*pluginClient, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  shared.HandshakeConfig,
		Plugins:          shared.PluginMap,
		Cmd:              exec.Command(path),
		Logger:           logger.Named("plugin"),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, err
	}
	raw, err := rpcClient.Dispense(shared.PluginTypeRules)
	if err != nil {
		client.Kill()
		return nil, err
	}
	rules, ok := raw.(shared.RulePlugin)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin does not implement %q", shared.PluginTypeRules)
	}
	return &pluginClient{path: path, client: client, rules: rules}, nil
}

// pluginRule runs a rule inside a plugin process.
type pluginRule struct {
	rule.Meta
	plugin *pluginClient
	logger hclog.Logger
}

func newPluginRule(info shared.RuleInfo, p *pluginClient, logger hclog.Logger) rule.Rule {
	meta := rule.Meta{
		ID:          info.ID,
		Description: info.Description,
		HelpText:    info.HelpText,
		Version:     info.Version,
	}
	for _, name := range info.Types {
		kind := candidate.ParseKind(name)
		if kind == candidate.KindUnknown {
			logger.Warn("plugin rule declares unknown kind", "rule", info.ID, "kind", name)
			continue
		}
		meta.Types = append(meta.Types, kind)
	}
	return &pluginRule{Meta: meta, plugin: p, logger: logger}
}

// Check returns nil when the plugin call fails. A faulty candidate is not
// sent to the plugin, its syntax error is already reported.
func (r *pluginRule) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	if c.Faulty {
		return rule.NewResult(c.Path, nil)
	}
	resp, err := r.plugin.rules.Check(shared.CheckRequest{
		RuleID:  r.ID,
		Path:    c.Path,
		Kind:    c.Kind.String(),
		Version: c.Version,
		Config:  *cfg,
		Faulty:  c.Faulty,
	})
	if err != nil {
		r.logger.Error("plugin check failed", "rule", r.ID, "plugin", r.plugin.path, "error", err)
		return nil
	}
	if resp.Faulty {
		c.Faulty = true
	}

	findings := make([]rule.Finding, 0, len(resp.Findings))
	for _, f := range resp.Findings {
		finding := rule.NewFinding(f.Line, f.Message)
		for _, l := range f.Labels {
			finding.Labels = finding.Labels.With(l.Key, l.Value)
		}
		findings = append(findings, finding)
	}
	return rule.NewResult(c.Path, findings)
}
