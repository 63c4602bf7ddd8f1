package config

import (
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/scan-io-git/ansible-later/pkg/shared/files"
)

// DefaultConfigFile is picked up from the working directory when no --config is given.
const DefaultConfigFile = ".later.yml"

type Config struct {
	Logging  Logging  `yaml:"logging"`
	Rules    Rules    `yaml:"rules"`
	Ansible  Ansible  `yaml:"ansible"`
	Yamllint Yamllint `yaml:"yamllint"`
}

type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Rules struct {
	Dir            []string `yaml:"dir"`
	IncludeFilter  []string `yaml:"include_filter"`
	ExcludeFilter  []string `yaml:"exclude_filter"`
	WarningFilter  []string `yaml:"warning_filter"`
	Files          []string `yaml:"files"`
	ExcludeFiles   []string `yaml:"exclude_files"`
	IgnoreDotfiles bool     `yaml:"ignore_dotfiles"`
	Version        string   `yaml:"version"`
	Buildin        bool     `yaml:"buildin"`
}

type Ansible struct {
	CustomModules []string     `yaml:"custom_modules"`
	DoubleBraces  DoubleBraces `yaml:"double_braces"`
	LiteralBools  []string     `yaml:"literal_bools"`
	NamedTask     NamedTask    `yaml:"named_task"`
}

type DoubleBraces struct {
	MinSpacesInside int `yaml:"min_spaces_inside"`
	MaxSpacesInside int `yaml:"max_spaces_inside"`
}

type NamedTask struct {
	Exclude []string `yaml:"exclude"`
}

// Yamllint holds inline rule option fragments, e.g. "{max: 1, max-start: 0}".
type Yamllint struct {
	EmptyLines    string `yaml:"empty_lines"`
	Indentation   string `yaml:"indentation"`
	Hyphens       string `yaml:"hyphens"`
	DocumentStart string `yaml:"document_start"`
	DocumentEnd   string `yaml:"document_end"`
	Colons        string `yaml:"colons"`
	OctalValues   string `yaml:"octal_values"`
}

// Default returns the built-in configuration every other layer is applied on top of.
func Default() *Config {
	return &Config{
		Logging: Logging{
			Level: "WARN",
		},
		Rules: Rules{
			WarningFilter:  []string{"ANS999"},
			IgnoreDotfiles: true,
			Buildin:        true,
		},
		Ansible: Ansible{
			DoubleBraces: DoubleBraces{
				MinSpacesInside: 1,
				MaxSpacesInside: 1,
			},
			LiteralBools: []string{"True", "False", "yes", "no"},
			NamedTask: NamedTask{
				Exclude: []string{
					"meta",
					"debug",
					"block",
					"include_role",
					"import_role",
					"include_tasks",
					"import_tasks",
					"include_vars",
				},
			},
		},
		Yamllint: Yamllint{
			EmptyLines:    "{max: 1, max-start: 0, max-end: 1}",
			Indentation:   "{spaces: 2, check-multi-line-strings: false, indent-sequences: true}",
			Hyphens:       "{max-spaces-after: 1}",
			DocumentStart: "{present: true}",
			DocumentEnd:   "{present: true}",
			Colons:        "{max-spaces-before: 0, max-spaces-after: 1}",
			OctalValues:   "{forbid-implicit-octal: true, forbid-explicit-octal: true}",
		},
	}
}

func LoadYAML(configPath string, data interface{}) error {
	if err := files.ValidatePath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil && err != io.EOF {
		return err
	}

	return nil
}

// NewConfig loads configPath over the defaults. An empty path yields the defaults.
func NewConfig(configPath string) (*Config, error) {
	config := Default()
	if configPath == "" {
		return config, nil
	}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}

	return config, nil
}
