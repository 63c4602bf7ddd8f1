package candidate

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/scan-io-git/ansible-later/pkg/shared/files"
)

// ModuleRegistry tracks custom module names and the library directories they came from.
// It is append-only and safe for concurrent use.
type ModuleRegistry struct {
	mu      sync.RWMutex
	dirs    []string
	seen    map[string]struct{}
	modules map[string]struct{}
}

// NewModuleRegistry seeds the registry with explicitly configured module names.
func NewModuleRegistry(custom []string) *ModuleRegistry {
	r := &ModuleRegistry{
		seen:    make(map[string]struct{}),
		modules: make(map[string]struct{}),
	}
	for _, m := range custom {
		r.modules[m] = struct{}{}
	}
	return r
}

// AddDirectory registers every module found in dir. It returns false when dir was already known.
func (r *ModuleRegistry) AddDirectory(dir string) bool {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[dir]; ok {
		return false
	}
	r.seen[dir] = struct{}{}
	r.dirs = append(r.dirs, dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		r.modules[strings.TrimSuffix(name, filepath.Ext(name))] = struct{}{}
	}
	return true
}

// Has reports whether name is a known custom module.
func (r *ModuleRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[name]
	return ok
}

// Dirs returns the registered library directories in registration order.
func (r *ModuleRegistry) Dirs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.dirs...)
}

// Modules returns all known module names, sorted.
func (r *ModuleRegistry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for m := range r.modules {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func registerNearestLibrary(path string, modules *ModuleRegistry) {
	if dir, ok := files.FindUpward(filepath.Dir(path), "library", true); ok {
		modules.AddDirectory(dir)
	}
}
