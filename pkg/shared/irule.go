package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

// RulePlugin is implemented by external rule executables.
type RulePlugin interface {
	Describe() ([]RuleInfo, error)
	Check(req CheckRequest) (CheckResponse, error)
}

// RuleInfo describes one rule served by a plugin.
type RuleInfo struct {
	ID          string
	Description string
	HelpText    string
	Version     string   // minimum standards version, empty for best practices
	Types       []string // candidate kind names the rule applies to
}

// CheckRequest asks a plugin to run one rule against one candidate.
type CheckRequest struct {
	RuleID  string
	Path    string
	Kind    string
	Version string
	Config  config.Config
	Faulty  bool // the host already reported a syntax error for the candidate
}

type PluginLabel struct {
	Key   string
	Value string
}

type PluginFinding struct {
	Line    int
	Message string
	Labels  []PluginLabel
}

type CheckResponse struct {
	Findings []PluginFinding
	Faulty   bool // the plugin could not parse the candidate
}

type RuleRPCClient struct{ client *rpc.Client }

func (g *RuleRPCClient) Describe() ([]RuleInfo, error) {
	var resp []RuleInfo
	err := g.client.Call("Plugin.Describe", new(interface{}), &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (g *RuleRPCClient) Check(req CheckRequest) (CheckResponse, error) {
	var resp CheckResponse

	err := g.client.Call("Plugin.Check", req, &resp)
	if err != nil {
		return resp, err
	}

	return resp, nil
}

type RuleRPCServer struct {
	Impl RulePlugin
}

func (s *RuleRPCServer) Describe(args interface{}, resp *[]RuleInfo) error {
	var err error
	*resp, err = s.Impl.Describe()
	return err
}

func (s *RuleRPCServer) Check(args CheckRequest, resp *CheckResponse) error {
	var err error
	*resp, err = s.Impl.Check(args)
	return err
}

type RulesPlugin struct {
	Impl RulePlugin
}

func (p *RulesPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RuleRPCServer{Impl: p.Impl}, nil
}

func (RulesPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RuleRPCClient{client: c}, nil
}
