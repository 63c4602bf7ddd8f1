package registry

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/ansible-later/internal/candidate"
	"github.com/scan-io-git/ansible-later/internal/rule"
	"github.com/scan-io-git/ansible-later/pkg/shared"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
	"github.com/scan-io-git/ansible-later/pkg/shared/errors"
)

type stubRule struct {
	rule.Meta
	findings []rule.Finding
}

func (r *stubRule) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	return rule.NewResult(c.Path, r.findings)
}

func stub(id, version string, findings ...rule.Finding) *stubRule {
	return &stubRule{
		Meta: rule.Meta{
			ID:          id,
			Description: "stub " + id,
			Version:     version,
			Types:       []candidate.Kind{candidate.KindTask},
		},
		findings: findings,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rules   []rule.Rule
		wantErr bool
	}{
		{"distinct", []rule.Rule{stub("ANS101", ""), stub("ANS102", "")}, false},
		{"duplicate", []rule.Rule{stub("ANS101", ""), stub("ANS101", "0.1")}, true},
		{"empty ids", []rule.Rule{stub("", ""), stub("", "0.1")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			r.Register(tt.rules...)
			err := r.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var dup *errors.DuplicateRuleError
			require.True(t, stderrors.As(err, &dup))
			assert.Equal(t, []string{"ANS101"}, dup.IDs)
		})
	}
}

func TestFilterAndGet(t *testing.T) {
	r := New()
	r.Register(stub("ANS101", ""), stub("ANS102", "0.2"), stub("YML101", "0.1"))

	ids := func(rules []rule.Rule) []string {
		var out []string
		for _, rl := range rules {
			out = append(out, rl.Info().ID)
		}
		return out
	}
	assert.Equal(t, []string{"ANS101", "ANS102", "YML101"}, ids(r.Filter(nil, nil)))
	assert.Equal(t, []string{"ANS102"}, ids(r.Filter([]string{"ANS102", "ANS999"}, nil)))
	assert.Equal(t, []string{"ANS101", "ANS102"}, ids(r.Filter(nil, []string{"YML101"})))

	rl, ok := r.Get("YML101")
	require.True(t, ok)
	assert.Equal(t, "0.1", rl.Info().Version)
	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestLatestVersion(t *testing.T) {
	rules := []rule.Rule{stub("A", ""), stub("B", "0.2"), stub("C", "0.10")}
	assert.Equal(t, "0.10", LatestVersion(rules, "0.1"))
	assert.Equal(t, "0.1", LatestVersion([]rule.Rule{stub("A", "")}, "0.1"))
}

func TestLoad(t *testing.T) {
	logger := hclog.NewNullLogger()

	cfg := config.Default()
	r, err := Load(cfg, []rule.Rule{stub("ANS101", "")}, logger)
	require.NoError(t, err)
	assert.Len(t, r.Rules(), 1)
	r.Close()

	cfg.Rules.Buildin = false
	r, err = Load(cfg, []rule.Rule{stub("ANS101", "")}, logger)
	require.NoError(t, err)
	assert.Empty(t, r.Rules())

	_, err = Load(cfg, []rule.Rule{stub("ANS101", ""), stub("ANS101", "")}, logger)
	assert.NoError(t, err, "built-in rules are skipped when disabled")

	cfg.Rules.Buildin = true
	_, err = Load(cfg, []rule.Rule{stub("ANS101", ""), stub("ANS101", "")}, logger)
	assert.Error(t, err)

	cfg.Rules.Dir = []string{filepath.Join(t.TempDir(), "missing")}
	_, err = Load(cfg, nil, logger)
	assert.Error(t, err)
}

func TestPluginFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, mode os.FileMode) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), mode))
	}
	write("requiretags", 0o755)
	write("another", 0o755)
	write("not-alpha", 0o755)
	write("plugin2", 0o755)
	write("noexec", 0o644)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	paths, err := pluginFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "another"), filepath.Join(dir, "requiretags")}, paths)
}

func TestRuleServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles", "web", "tasks", "main.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("---\n- name: A\n  debug: msg=hi\n"), 0o644))

	found := rule.NewFinding(2, "bad", rule.Label{Key: "count", Value: 3})
	server := NewRuleServer(hclog.NewNullLogger(), stub("PLG101", "0.1", found))

	infos, err := server.Describe()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, shared.RuleInfo{
		ID:          "PLG101",
		Description: "stub PLG101",
		Version:     "0.1",
		Types:       []string{"task"},
	}, infos[0])

	resp, err := server.Check(shared.CheckRequest{
		RuleID: "PLG101",
		Path:   path,
		Kind:   "task",
		Config: *config.Default(),
	})
	require.NoError(t, err)
	assert.False(t, resp.Faulty)
	require.Len(t, resp.Findings, 1)
	assert.Equal(t, shared.PluginFinding{
		Line:    2,
		Message: "bad",
		Labels:  []shared.PluginLabel{{Key: "count", Value: "3"}},
	}, resp.Findings[0])

	_, err = server.Check(shared.CheckRequest{RuleID: "missing", Path: path, Kind: "task"})
	assert.Error(t, err)
}

type fakePlugin struct {
	resp shared.CheckResponse
	err  error
	req  shared.CheckRequest
}

func (f *fakePlugin) Describe() ([]shared.RuleInfo, error) { return nil, nil }

func (f *fakePlugin) Check(req shared.CheckRequest) (shared.CheckResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestPluginRule(t *testing.T) {
	info := shared.RuleInfo{ID: "PLG101", Version: "0.1", Types: []string{"task", "bogus"}}
	fake := &fakePlugin{resp: shared.CheckResponse{
		Faulty: true,
		Findings: []shared.PluginFinding{
			{Line: 4, Message: "missing tags", Labels: []shared.PluginLabel{{Key: "task", Value: "Install"}}},
		},
	}}
	rl := newPluginRule(info, &pluginClient{path: "requiretags", rules: fake}, hclog.NewNullLogger())
	assert.Equal(t, []candidate.Kind{candidate.KindTask}, rl.Info().Types)

	c := candidate.New(filepath.Join(t.TempDir(), "main.yml"), candidate.KindTask, nil)
	c.Version = "0.2"
	res := rl.Check(c, config.Default())
	require.NotNil(t, res)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 4, res.Findings[0].Line)
	v, _ := res.Findings[0].Labels.Get("task")
	assert.Equal(t, "Install", v)
	assert.True(t, c.Faulty)
	assert.Equal(t, "task", fake.req.Kind)
	assert.Equal(t, "0.2", fake.req.Version)

	c.Faulty = false
	fake.err = stderrors.New("connection reset")
	assert.Nil(t, rl.Check(c, config.Default()))
}

// tasksRule reports the parse errors of the task helpers and nothing else.
type tasksRule struct{ rule.Meta }

func (r *tasksRule) Check(c *candidate.Candidate, cfg *config.Config) *rule.Result {
	_, errs := rule.GetNormalizedTasks(c, cfg, false)
	return rule.NewResult(c.Path, errs)
}

func TestPluginRuleSkipsFaultyCandidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles", "web", "tasks", "main.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("---\n- name: A\n   bad: [\n"), 0o644))

	meta := rule.Meta{ID: "PLG102", Description: "tasks", Types: []candidate.Kind{candidate.KindTask}}
	server := NewRuleServer(hclog.NewNullLogger(), &tasksRule{Meta: meta})
	info := shared.RuleInfo{ID: "PLG102", Types: []string{"task"}}
	pluginRl := newPluginRule(info, &pluginClient{path: "tasks", rules: server}, hclog.NewNullLogger())

	c := candidate.Classify(path, nil)
	require.NotNil(t, c)

	builtin := (&tasksRule{Meta: rule.Meta{ID: "ANS103"}}).Check(c, config.Default())
	require.Len(t, builtin.Findings, 1)
	assert.Contains(t, builtin.Findings[0].Message, "syntax error")
	require.True(t, c.Faulty)

	res := pluginRl.Check(c, config.Default())
	require.NotNil(t, res)
	assert.Empty(t, res.Findings)

	resp, err := server.Check(shared.CheckRequest{
		RuleID: "PLG102",
		Path:   path,
		Kind:   "task",
		Config: *config.Default(),
		Faulty: true,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Findings)
	assert.True(t, resp.Faulty)

	resp, err = server.Check(shared.CheckRequest{RuleID: "PLG102", Path: path, Kind: "task", Config: *config.Default()})
	require.NoError(t, err)
	require.Len(t, resp.Findings, 1)
	assert.True(t, resp.Faulty)
}
