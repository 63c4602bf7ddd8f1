package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scan-io-git/ansible-later/pkg/shared/files"
)

// ResolveFiles expands rules.files into the final list of paths to review.
// Directories are walked recursively, "." is used when no files are configured,
// exclude_files patterns and dotfile filtering are applied to every candidate.
func ResolveFiles(cfg *Config) ([]string, error) {
	roots := cfg.Rules.Files
	if len(roots) == 0 {
		roots = []string{"."}
	}

	seen := make(map[string]struct{})
	var result []string
	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		result = append(result, path)
	}

	for _, root := range roots {
		root, err := files.ExpandPath(root)
		if err != nil {
			return nil, fmt.Errorf("failed to expand path %q: %w", root, err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("path stat error: %w", err)
		}
		if !info.IsDir() {
			if !isExcluded(cfg, root, false) {
				add(root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}
			if isExcluded(cfg, path, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %q: %w", root, err)
		}
	}

	sort.Strings(result)
	return result, nil
}

func isExcluded(cfg *Config, path string, isDir bool) bool {
	path = filepath.Clean(path)
	base := filepath.Base(path)
	if cfg.Rules.IgnoreDotfiles && strings.HasPrefix(base, ".") && base != "." && base != ".." {
		return true
	}
	for _, pattern := range cfg.Rules.ExcludeFiles {
		dirPattern := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")
		if dirPattern && !isDir {
			continue
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
