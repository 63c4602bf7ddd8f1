package files

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves paths that include a tilde (~) to the user's home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}

// ValidatePath checks if the given path is a valid file path for reading.
func ValidatePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path stat error: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path %q is a directory, not a file", path)
	}

	if info.Mode()&os.ModeType != 0 {
		return fmt.Errorf("path %q is not a regular file", path)
	}
	return nil
}

// IsExecutable reports whether path is a regular file with any execute bit set.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// FindUpward walks from dir towards the filesystem root and returns the first
// existing dir/rel path. A directory is expected when wantDir is true.
func FindUpward(dir, rel string, wantDir bool) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, rel)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() == wantDir {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func CreateFolderIfNotExists(folder string) error {
	if _, err := os.Stat(folder); os.IsNotExist(err) {
		if err := os.MkdirAll(folder, os.ModePerm); err != nil {
			return fmt.Errorf("unable to create folder %q: %w", folder, err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to check folder %q: %w", folder, err)
	}
	return nil
}

func WriteJsonFile(outputFile string, data []byte) error {
	file, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed creating file: %w", err)
	}
	defer file.Close()

	datawriter := bufio.NewWriter(file)
	defer datawriter.Flush()

	if _, err := datawriter.Write(data); err != nil {
		return fmt.Errorf("error writing data to file: %w", err)
	}

	return nil
}

// DetermineFileFullPath resolves path into a report file location.
// Existing directories and extension-less paths are treated as folders that receive nameTemplate.
func DetermineFileFullPath(path, nameTemplate string) (string, string, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to unwrap path %q: %w", path, err)
	}

	fileInfo, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return "", "", fmt.Errorf("failed to unwrap path %q: %w", path, err)
	}

	var fullPath, folder string
	if err == nil && fileInfo.IsDir() || (err != nil && filepath.Ext(path) == "") {
		folder = path
		fullPath = filepath.Join(path, nameTemplate)
	} else {
		folder = filepath.Dir(path)
		fullPath = path
	}

	return fullPath, folder, nil
}
