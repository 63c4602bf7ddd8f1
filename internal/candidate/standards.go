package candidate

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"

	"github.com/scan-io-git/ansible-later/pkg/shared/files"
)

var standardsRe = regexp.MustCompile(`^# Standards:\s*([\d.]+)`)

// FindDeclaredVersion looks up the "# Standards:" marker for a file of the given kind.
// Role files read it from the owning role's meta/main.yml, other files from themselves.
func FindDeclaredVersion(path string, kind Kind) string {
	source := path
	if IsRoleFile(kind) {
		if meta, ok := files.FindUpward(filepath.Dir(path), filepath.Join("meta", "main.yml"), false); ok {
			source = meta
		}
	}
	return scanStandardsMarker(source)
}

func scanStandardsMarker(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := standardsRe.FindStringSubmatch(scanner.Text()); m != nil {
			return m[1]
		}
	}
	return ""
}
