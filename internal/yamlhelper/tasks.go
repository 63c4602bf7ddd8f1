package yamlhelper

import (
	"fmt"
)

const (
	ActionTypeTask    = "task"
	ActionTypeHandler = "handler"
	ActionTypeMeta    = "meta"
)

var playSections = []string{"tasks", "handlers", "pre_tasks", "post_tasks"}

var sectionActionType = map[string]string{
	"tasks":      ActionTypeTask,
	"pre_tasks":  ActionTypeTask,
	"post_tasks": ActionTypeTask,
	"handlers":   ActionTypeHandler,
	"block":      ActionTypeMeta,
	"rescue":     ActionTypeMeta,
	"always":     ActionTypeMeta,
}

var blockKeys = []string{"block", "rescue", "always"}

var includeKeys = []string{"include", "include_tasks", "import_playbook", "import_tasks"}

// RawTask is a task mapping as written, tagged with where it was found.
type RawTask struct {
	*Map
	// ActionType is task, handler or meta (nested in a block).
	ActionType string
	// BlockMeta holds the keys of the enclosing block, nil for top-level tasks.
	BlockMeta *Map
}

// ActionTasks extracts the task mappings from a parsed document.
// With a non-empty section the document is a plain task list of that section
// (e.g. "tasks" for role task files); otherwise it is a list of plays.
// Blocks are flattened and include/import directives are dropped.
func ActionTasks(doc any, section string) ([]*RawTask, error) {
	var tasks []*RawTask

	if section != "" {
		items, _ := doc.([]any)
		tasks = appendTasks(tasks, items, sectionActionType[section], nil)
		return filterIncludes(tasks), nil
	}

	var plays []any
	switch t := doc.(type) {
	case []any:
		plays = t
	case *Map:
		plays = []any{t}
	}

	for _, p := range plays {
		play, ok := p.(*Map)
		if !ok {
			continue
		}
		for _, name := range playSections {
			value, ok := play.Get(name)
			if !ok || value == nil {
				continue
			}
			items, ok := value.([]any)
			if !ok {
				return nil, &ParseError{
					Line:    play.Line,
					Problem: fmt.Sprintf("key '%s' defined, but bad value: '%v'", name, ScalarString(value)),
				}
			}
			tasks = appendTasks(tasks, items, sectionActionType[name], nil)
		}
	}

	return filterIncludes(tasks), nil
}

// appendTasks appends items to tasks in source order, replacing blocks with their children.
func appendTasks(tasks []*RawTask, items []any, actionType string, meta *Map) []*RawTask {
	for _, item := range items {
		m, ok := item.(*Map)
		if !ok {
			continue
		}
		if !isBlock(m) {
			tasks = append(tasks, &RawTask{Map: m, ActionType: actionType, BlockMeta: meta})
			continue
		}

		blockMeta := m.Without(blockKeys...)
		if meta != nil {
			mergeInto(blockMeta, meta)
		}
		for _, key := range blockKeys {
			children, ok := m.Get(key)
			if !ok {
				continue
			}
			list, _ := children.([]any)
			tasks = appendTasks(tasks, list, sectionActionType[key], blockMeta)
		}
	}
	return tasks
}

func isBlock(m *Map) bool {
	for _, key := range blockKeys {
		if m.Has(key) {
			return true
		}
	}
	return false
}

func filterIncludes(tasks []*RawTask) []*RawTask {
	out := tasks[:0]
	for _, t := range tasks {
		if !isInclude(t.Map) {
			out = append(out, t)
		}
	}
	return out
}

func isInclude(m *Map) bool {
	for _, key := range includeKeys {
		if m.Has(key) {
			return true
		}
	}
	return false
}
