package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".later.yml")
	writeFile(t, path, "rules:\n  exclude_filter: [ANS106]\nansible:\n  double_braces:\n    max_spaces_inside: 2\n")

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ANS106"}, cfg.Rules.ExcludeFilter)
	assert.Equal(t, 2, cfg.Ansible.DoubleBraces.MaxSpacesInside)
	assert.Equal(t, 1, cfg.Ansible.DoubleBraces.MinSpacesInside)
	assert.True(t, cfg.Rules.Buildin)
	assert.Equal(t, "{present: true}", cfg.Yamllint.DocumentStart)
}

func TestNewConfigEmptyPath(t *testing.T) {
	cfg, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestNewConfigEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".later.yml")
	writeFile(t, path, "")

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestNewConfigDirectory(t *testing.T) {
	_, err := NewConfig(t.TempDir())
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(cfg *Config) {}},
		{name: "warning level alias", mutate: func(cfg *Config) { cfg.Logging.Level = "warning" }},
		{name: "unknown level", mutate: func(cfg *Config) { cfg.Logging.Level = "loud" }, wantErr: true},
		{name: "empty filter id", mutate: func(cfg *Config) { cfg.Rules.IncludeFilter = []string{" "} }, wantErr: true},
		{name: "bad glob", mutate: func(cfg *Config) { cfg.Rules.ExcludeFiles = []string{"[a"} }, wantErr: true},
		{name: "bad version", mutate: func(cfg *Config) { cfg.Rules.Version = "v1" }, wantErr: true},
		{name: "braces min above max", mutate: func(cfg *Config) { cfg.Ansible.DoubleBraces.MinSpacesInside = 3 }, wantErr: true},
		{name: "yamllint disable", mutate: func(cfg *Config) { cfg.Yamllint.Colons = "disable" }},
		{name: "yamllint garbage", mutate: func(cfg *Config) { cfg.Yamllint.Hyphens = "{max: [" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAdjustLevel(t *testing.T) {
	assert.Equal(t, "INFO", AdjustLevel("WARN", -1))
	assert.Equal(t, "TRACE", AdjustLevel("WARN", -10))
	assert.Equal(t, "ERROR", AdjustLevel("warn", 5))
}

func TestSetThen(t *testing.T) {
	assert.Equal(t, 4, SetThen(0, 4))
	assert.Equal(t, 2, SetThen(2, 4))
	assert.Equal(t, "x", SetThen("", "x"))
}

func TestResolveFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.yml"), "---\n")
	writeFile(t, filepath.Join(dir, "roles", "web", "tasks", "main.yml"), "---\n")
	writeFile(t, filepath.Join(dir, ".hidden.yml"), "---\n")
	writeFile(t, filepath.Join(dir, ".git", "config"), "x")
	writeFile(t, filepath.Join(dir, "vendor", "lib.yml"), "---\n")

	cfg := Default()
	cfg.Rules.Files = []string{dir}
	cfg.Rules.ExcludeFiles = []string{"vendor/"}

	got, err := ResolveFiles(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "roles", "web", "tasks", "main.yml"),
		filepath.Join(dir, "site.yml"),
	}, got)

	cfg.Rules.IgnoreDotfiles = false
	cfg.Rules.ExcludeFiles = []string{"*.yml"}
	got, err = ResolveFiles(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ".git", "config")}, got)
}
