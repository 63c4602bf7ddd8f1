package config

import (
	"fmt"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("YAML global config: logging directive is invalid: %w", err)
	}
	if err := ValidateRulesConfig(&cfg.Rules); err != nil {
		return fmt.Errorf("YAML global config: rules directive is invalid: %w", err)
	}
	if err := ValidateAnsibleConfig(&cfg.Ansible); err != nil {
		return fmt.Errorf("YAML global config: ansible directive is invalid: %w", err)
	}
	if err := ValidateYamllintConfig(&cfg.Yamllint); err != nil {
		return fmt.Errorf("YAML global config: yamllint directive is invalid: %w", err)
	}
	return nil
}

// ValidateLoggingConfig normalizes the level name and rejects unknown ones.
func ValidateLoggingConfig(logging *Logging) error {
	if logging == nil {
		return fmt.Errorf("logging configuration is nil")
	}
	if logging.Level == "" {
		return nil
	}
	level := strings.ToUpper(logging.Level)
	if level == "WARNING" {
		level = "WARN"
	}
	if !Contains(logLevels, level) {
		return fmt.Errorf("unknown log level %q", logging.Level)
	}
	logging.Level = level
	return nil
}

// ValidateRulesConfig checks filter entries and glob patterns.
func ValidateRulesConfig(rules *Rules) error {
	if rules == nil {
		return fmt.Errorf("rules configuration is nil")
	}
	filters := map[string][]string{
		"include_filter": rules.IncludeFilter,
		"exclude_filter": rules.ExcludeFilter,
		"warning_filter": rules.WarningFilter,
	}
	for name, list := range filters {
		for _, id := range list {
			if strings.TrimSpace(id) == "" {
				return fmt.Errorf("%s contains an empty rule id", name)
			}
		}
	}
	for _, pattern := range rules.ExcludeFiles {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid exclude_files pattern %q: %w", pattern, err)
		}
	}
	if rules.Version != "" && strings.Trim(rules.Version, "0123456789.") != "" {
		return fmt.Errorf("version %q is not a dotted number", rules.Version)
	}
	return nil
}

// ValidateAnsibleConfig checks rule tuning knobs.
func ValidateAnsibleConfig(ansible *Ansible) error {
	if ansible == nil {
		return fmt.Errorf("ansible configuration is nil")
	}
	braces := ansible.DoubleBraces
	if braces.MinSpacesInside < 0 || braces.MaxSpacesInside < 0 {
		return fmt.Errorf("double_braces spaces cannot be negative")
	}
	if braces.MinSpacesInside > braces.MaxSpacesInside {
		return fmt.Errorf("double_braces min_spaces_inside %d exceeds max_spaces_inside %d",
			braces.MinSpacesInside, braces.MaxSpacesInside)
	}
	return nil
}

// ValidateYamllintConfig makes sure every fragment is a YAML mapping or an enable/disable switch.
func ValidateYamllintConfig(lint *Yamllint) error {
	if lint == nil {
		return fmt.Errorf("yamllint configuration is nil")
	}
	fragments := map[string]string{
		"empty_lines":    lint.EmptyLines,
		"indentation":    lint.Indentation,
		"hyphens":        lint.Hyphens,
		"document_start": lint.DocumentStart,
		"document_end":   lint.DocumentEnd,
		"colons":         lint.Colons,
		"octal_values":   lint.OctalValues,
	}
	for name, fragment := range fragments {
		switch strings.TrimSpace(fragment) {
		case "", "enable", "disable":
			continue
		}
		var opts map[string]interface{}
		if err := yaml.Unmarshal([]byte(fragment), &opts); err != nil {
			return fmt.Errorf("%s is not a valid option mapping: %w", name, err)
		}
	}
	return nil
}
