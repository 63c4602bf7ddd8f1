package rule

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/scan-io-git/ansible-later/internal/yamlhelper"
)

// ShellPipeChars mark a command line that needs a shell.
const ShellPipeChars = "&|<>;$\n*[]{}?"

// CommandModules run arbitrary commands.
var CommandModules = []string{"command", "shell", "raw"}

var (
	jinjaExprRe    = regexp.MustCompile(`{{.+?}}`)
	jinjaStmtRe    = regexp.MustCompile(`{%.+?%}`)
	jinjaCommentRe = regexp.MustCompile(`{#.+?#}`)
)

// IsCommand reports whether the task runs one of CommandModules.
func IsCommand(task *yamlhelper.NormalizedTask) bool {
	for _, m := range CommandModules {
		if task.Action.Module == m {
			return true
		}
	}
	return false
}

// GetFirstCmdArg returns the executable of a command task, "" when there is none.
func GetFirstCmdArg(task *yamlhelper.NormalizedTask) string {
	if cmd, ok := task.Action.Get("cmd"); ok {
		if fields := strings.Fields(yamlhelper.ScalarString(cmd)); len(fields) > 0 {
			return fields[0]
		}
		return ""
	}
	if argv, ok := task.Action.Get("argv"); ok {
		if list, ok := argv.([]any); ok && len(list) > 0 {
			return yamlhelper.ScalarString(list[0])
		}
		return ""
	}
	if len(task.Action.Args) > 0 {
		return task.Action.Args[0]
	}
	return ""
}

// GetExecutable is the base name of GetFirstCmdArg.
func GetExecutable(task *yamlhelper.NormalizedTask) string {
	first := GetFirstCmdArg(task)
	if first == "" {
		return ""
	}
	return filepath.Base(first)
}

// GetSafeCmd returns the command line with Jinja2 blocks and URLs replaced by
// placeholders, so that their characters do not look like shell syntax.
func GetSafeCmd(task *yamlhelper.NormalizedTask) string {
	var cmd string
	if v, ok := task.Action.Get("cmd"); ok {
		cmd = yamlhelper.ScalarString(v)
	} else {
		cmd = strings.Join(task.Action.Args, " ")
	}

	cmd = jinjaExprRe.ReplaceAllString(cmd, "JINJA_EXPRESSION")
	cmd = jinjaStmtRe.ReplaceAllString(cmd, "JINJA_STATEMENT")
	cmd = jinjaCommentRe.ReplaceAllString(cmd, "JINJA_COMMENT")

	parts := strings.Fields(cmd)
	for i, p := range parts {
		if u, err := url.Parse(strings.Trim(p, `"'`)); err == nil && u.Scheme != "" && u.Host != "" {
			parts[i] = "URL"
		}
	}
	return strings.Join(parts, " ")
}

// UsesShellSyntax reports whether cmd contains any of ShellPipeChars.
func UsesShellSyntax(cmd string) bool {
	return strings.ContainsAny(cmd, ShellPipeChars)
}
