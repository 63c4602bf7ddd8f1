package errors

import (
	"fmt"
	"sort"
	"strings"
)

// DuplicateRuleError is returned when two or more loaded rules share a non-empty identifier.
type DuplicateRuleError struct {
	IDs []string
}

// Error implements the error interface for DuplicateRuleError.
func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("found duplicate rule ids: %s", strings.Join(e.IDs, ", "))
}

// NewDuplicateRuleError creates a DuplicateRuleError with the ids sorted for stable output.
func NewDuplicateRuleError(ids []string) error {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return &DuplicateRuleError{IDs: sorted}
}

// PluginLoadError represents a failure to launch or describe an external rule plugin.
type PluginLoadError struct {
	Path string
	Err  error
}

func (e *PluginLoadError) Error() string {
	return fmt.Sprintf("failed to load rule plugin %q: %v", e.Path, e.Err)
}

func (e *PluginLoadError) Unwrap() error {
	return e.Err
}

// NewPluginLoadError wraps err with the plugin path it occurred for.
func NewPluginLoadError(path string, err error) error {
	return &PluginLoadError{Path: path, Err: err}
}

// RuleUsageError marks a rule that did not produce a result object.
type RuleUsageError struct {
	RuleID string
}

func (e *RuleUsageError) Error() string {
	return fmt.Sprintf("rule %q returned no result", e.RuleID)
}

// NewRuleUsageError creates a new RuleUsageError for the given rule id.
func NewRuleUsageError(ruleID string) error {
	return &RuleUsageError{RuleID: ruleID}
}

// CommandError represents an error that terminates a command with a specific exit code.
type CommandError struct {
	ExitCode    int
	CommonError string
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// NewCommandError creates a new CommandError with the given exit code.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
	}
}
