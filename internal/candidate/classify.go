package candidate

import (
	"path/filepath"
	"strings"
)

var codeDirs = map[string]bool{
	"library":          true,
	"lookup_plugins":   true,
	"callback_plugins": true,
	"filter_plugins":   true,
}

// kindHooks run after classification for kinds with side effects.
var kindHooks = map[Kind]func(path string, modules *ModuleRegistry){
	KindTask:     registerNearestLibrary,
	KindHandler:  registerNearestLibrary,
	KindRoleVars: registerNearestLibrary,
	KindMeta:     registerNearestLibrary,
	KindTemplate: registerNearestLibrary,
	KindFile:     registerNearestLibrary,
}

// Classify maps path to a candidate. It returns nil when no kind matches.
// Role files register the nearest library/ directory in modules as a side effect.
func Classify(path string, modules *ModuleRegistry) *Candidate {
	kind := ClassifyPath(path)
	if kind == KindUnknown {
		return nil
	}
	if modules == nil {
		modules = NewModuleRegistry(nil)
	}
	if hook, ok := kindHooks[kind]; ok {
		hook(path, modules)
	}
	return New(path, kind, modules)
}

// ClassifyPath applies the first-match decision table to a path string.
func ClassifyPath(path string) Kind {
	path = filepath.Clean(path)
	base := filepath.Base(path)
	parent := filepath.Base(filepath.Dir(path))
	ext := strings.ToLower(filepath.Ext(base))
	segments := strings.Split(filepath.ToSlash(path), "/")

	switch {
	case parent == "tasks":
		return KindTask
	case parent == "handlers":
		return KindHandler
	case parent == "vars" || parent == "defaults":
		return KindRoleVars
	case hasSegment(segments, "group_vars"):
		return KindGroupVars
	case hasSegment(segments, "host_vars"):
		return KindHostVars
	case parent == "meta" && strings.Contains(base, "main"):
		return KindMeta
	case parent == "meta" && strings.Contains(base, "argument_specs"):
		return KindArgumentSpecs
	case codeDirs[parent] || ext == ".py":
		return KindCode
	case base == "inventory" || base == "hosts" || parent == "inventories":
		return KindInventory
	case strings.Contains(base, "rolesfile") || (strings.Contains(base, "requirements") && isYAML(ext)):
		return KindRolesfile
	case strings.Contains(base, "Makefile"):
		return KindMakefile
	case hasSegment(segments, "templates") || ext == ".j2":
		return KindTemplate
	case hasSegment(segments, "files"):
		return KindFile
	case isYAML(ext):
		return KindPlaybook
	case strings.Contains(base, "README"):
		return KindDoc
	}
	return KindUnknown
}

func isYAML(ext string) bool {
	return ext == ".yml" || ext == ".yaml"
}

func hasSegment(segments []string, name string) bool {
	for _, s := range segments {
		if s == name {
			return true
		}
	}
	return false
}
