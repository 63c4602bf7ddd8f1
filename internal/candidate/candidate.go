// Package candidate classifies files under review and carries their per-review state.
package candidate

import (
	"bufio"
	"bytes"
	"os"
	"unicode/utf8"
)

const vaultHeader = "$ANSIBLE_VAULT"

// Candidate is one file under review.
type Candidate struct {
	Path string
	Kind Kind

	// Binary is set for content that is not valid UTF-8.
	Binary bool
	// Vault is set for files encrypted with ansible-vault.
	Vault bool

	// DeclaredVersion is the "# Standards:" marker found for this file, if any.
	DeclaredVersion string
	// Version is the resolved standards version used for tier classification.
	Version string
	// VersionPinned is false when Version fell back to the latest rule version.
	VersionPinned bool

	// Faulty is set once a parse failed; helpers stop parsing afterwards.
	Faulty bool

	modules *ModuleRegistry
}

// New creates a candidate of a known kind without classification.
func New(path string, kind Kind, modules *ModuleRegistry) *Candidate {
	if modules == nil {
		modules = NewModuleRegistry(nil)
	}
	c := &Candidate{
		Path:    path,
		Kind:    kind,
		modules: modules,
	}
	c.detectContent()
	return c
}

// Modules returns the custom module registry used while normalizing tasks.
func (c *Candidate) Modules() *ModuleRegistry {
	return c.modules
}

// Content reads the file from disk.
func (c *Candidate) Content() ([]byte, error) {
	return os.ReadFile(c.Path)
}

func (c *Candidate) detectContent() {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return
	}
	if !utf8.Valid(data) {
		c.Binary = true
		return
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if scanner.Scan() && bytes.HasPrefix(scanner.Bytes(), []byte(vaultHeader)) {
		c.Vault = true
	}
}
