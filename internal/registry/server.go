package registry

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/pkg/shared"
	"github.com/scan-io-git/ansible-later/pkg/shared/errors"
)

// RuleServer exposes rules to a host process. Plugin executables pass it to shared.ServeRules.
type RuleServer struct {
	logger hclog.Logger
	rules  []rule.Rule
}

func NewRuleServer(logger hclog.Logger, rules ...rule.Rule) *RuleServer {
	return &RuleServer{logger: logger, rules: rules}
}

func (s *RuleServer) Describe() ([]shared.RuleInfo, error) {
	infos := make([]shared.RuleInfo, 0, len(s.rules))
	for _, rl := range s.rules {
		meta := rl.Info()
		info := shared.RuleInfo{
			ID:          meta.ID,
			Description: meta.Description,
			HelpText:    meta.HelpText,
			Version:     meta.Version,
		}
		for _, k := range meta.Types {
			info.Types = append(info.Types, k.String())
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *RuleServer) Check(req shared.CheckRequest) (shared.CheckResponse, error) {
	var rl rule.Rule
	for _, candidateRule := range s.rules {
		if candidateRule.Info().ID == req.RuleID {
			rl = candidateRule
			break
		}
	}
	if rl == nil {
		return shared.CheckResponse{}, fmt.Errorf("unknown rule %q", req.RuleID)
	}

	modules := candidate.NewModuleRegistry(req.Config.Ansible.CustomModules)
	c := candidate.Classify(req.Path, modules)
	if c == nil || c.Kind.String() != req.Kind {
		c = candidate.New(req.Path, candidate.ParseKind(req.Kind), modules)
	}
	c.Version = req.Version
	c.Faulty = req.Faulty

	s.logger.Debug("checking candidate", "rule", req.RuleID, "path", req.Path)
	res := rl.Check(c, &req.Config)

	resp := shared.CheckResponse{Faulty: c.Faulty}
	if res == nil {
		return resp, errors.NewRuleUsageError(req.RuleID)
	}
	for _, f := range res.Findings {
		pf := shared.PluginFinding{Line: f.Line, Message: f.Message}
		for _, l := range f.Labels {
			pf.Labels = append(pf.Labels, shared.PluginLabel{Key: l.Key, Value: fmt.Sprint(l.Value)})
		}
		resp.Findings = append(resp.Findings, pf)
	}
	return resp, nil
}
