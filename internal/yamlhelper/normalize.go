package yamlhelper

import (
	"fmt"
	"strings"
)

// taskKeywords are task-level keys that never name a module.
var taskKeywords = map[string]bool{
	"action": true, "always_run": true, "any_errors_fatal": true, "args": true,
	"async": true, "become": true, "become_exe": true, "become_flags": true,
	"become_method": true, "become_user": true, "changed_when": true,
	"check_mode": true, "collections": true, "connection": true, "debugger": true,
	"delay": true, "delegate_facts": true, "delegate_to": true, "diff": true,
	"environment": true, "failed_when": true, "first_available_file": true,
	"ignore_errors": true, "ignore_unreachable": true, "listen": true,
	"local_action": true, "loop": true, "loop_control": true, "module_defaults": true,
	"name": true, "no_log": true, "notify": true, "poll": true, "port": true,
	"register": true, "remote_user": true, "retries": true, "run_once": true,
	"su": true, "su_pass": true, "su_user": true, "sudo": true, "sudo_pass": true,
	"sudo_user": true, "tags": true, "throttle": true, "timeout": true,
	"transport": true, "until": true, "vars": true, "when": true,
	"block": true, "rescue": true, "always": true,
}

// ModuleLookup knows custom module names, e.g. from library/ directories.
type ModuleLookup interface {
	Has(name string) bool
}

// Action is the resolved module invocation of a task.
type Action struct {
	Module string
	// Args are free-form arguments such as the command line of command/shell.
	Args []string
	// Params are the named module arguments.
	Params map[string]any
}

func (a Action) Get(key string) (any, bool) {
	v, ok := a.Params[key]
	return v, ok
}

func (a Action) Has(key string) bool {
	_, ok := a.Params[key]
	return ok
}

func (a Action) GetString(key string) string {
	return ScalarString(a.Params[key])
}

// NormalizedTask is the canonical shape of a task regardless of how it was written.
type NormalizedTask struct {
	Action     Action
	Line       int
	File       string
	DelegateTo string
	ActionType string
	BlockMeta  *Map
	// Fields are the task keywords without the action itself.
	Fields *Map
	Raw    *Map
}

func (t *NormalizedTask) Name() string {
	return t.Fields.GetString("name")
}

func (t *NormalizedTask) Get(key string) (any, bool) {
	return t.Fields.Get(key)
}

func (t *NormalizedTask) Has(key string) bool {
	return t.Fields.Has(key)
}

// Tags returns the task tags given either as a list or as a comma separated string.
func (t *NormalizedTask) Tags() []string {
	v, _ := t.Fields.Get("tags")
	var tags []string
	switch tv := v.(type) {
	case []any:
		for _, item := range tv {
			if s := ScalarString(item); s != "" {
				tags = append(tags, s)
			}
		}
	case string:
		for _, s := range strings.Split(tv, ",") {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

// NormalizeTask resolves the module a task invokes and its arguments.
// The action can be given by an action: key, a local_action: key or a module key.
func NormalizeTask(task *RawTask, modules ModuleLookup) (*NormalizedTask, error) {
	fail := func(format string, a ...any) error {
		return &ParseError{Line: task.Line, Problem: fmt.Sprintf(format, a...)}
	}

	var (
		actionKey string
		thing     any
		found     bool
	)
	delegateTo := task.GetString("delegate_to")

	if v, ok := task.Get("action"); ok {
		actionKey, thing, found = "action", v, true
	}
	if v, ok := task.Get("local_action"); ok {
		if found {
			return nil, fail("action and local_action are mutually exclusive")
		}
		actionKey, thing, found = "local_action", v, true
		delegateTo = "localhost"
	}

	module := ""
	for _, key := range task.Keys() {
		if !isModuleKey(key, modules) {
			continue
		}
		if found {
			return nil, fail("conflicting action statements: %s, %s", actionKey, key)
		}
		value, _ := task.Get(key)
		actionKey, thing, found = key, value, true
		module = key
	}
	if !found {
		return nil, fail("no module/action detected in task.")
	}

	params := make(map[string]any)
	var args []string

	switch t := thing.(type) {
	case *Map:
		for _, k := range t.Keys() {
			v, _ := t.Get(k)
			params[k] = v
		}
	case []any:
		for _, item := range t {
			args = append(args, ScalarString(item))
		}
	case nil:
	default:
		tokens := SplitArgs(ScalarString(t))
		if module == "" && len(tokens) > 0 {
			module, tokens = tokens[0], tokens[1:]
		}
		if freeFormModules[module] {
			args = parseFreeForm(tokens, params)
		} else {
			args = parseKV(tokens, params)
		}
	}

	if module == "" {
		module = ScalarString(params["module"])
		delete(params, "module")
	}
	if module == "" {
		return nil, fail("no module/action detected in task.")
	}

	if raw, ok := params["_raw_params"]; ok {
		switch rv := raw.(type) {
		case []any:
			for _, item := range rv {
				args = append(args, ScalarString(item))
			}
		default:
			args = append(args, SplitArgs(ScalarString(rv))...)
		}
		delete(params, "_raw_params")
	}

	if extra, ok := task.Get("args"); ok {
		if em, ok := extra.(*Map); ok {
			for _, k := range em.Keys() {
				if _, exists := params[k]; !exists {
					params[k], _ = em.Get(k)
				}
			}
		}
	}

	return &NormalizedTask{
		Action: Action{
			Module: module,
			Args:   args,
			Params: params,
		},
		Line:       task.Line,
		File:       task.File,
		DelegateTo: delegateTo,
		ActionType: task.ActionType,
		BlockMeta:  task.BlockMeta,
		Fields:     task.Without("action", "local_action", "args", module),
		Raw:        task.Map,
	}, nil
}

func isModuleKey(key string, modules ModuleLookup) bool {
	if modules != nil && modules.Has(key) {
		return true
	}
	if taskKeywords[key] || strings.HasPrefix(key, "with_") {
		return false
	}
	return true
}
