package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// TextStore keeps extracted text files in one directory and maps them to
// the public URL prefix they are served under.
type TextStore struct {
	dir    string
	prefix string
}

func New(dir, publicPrefix string) *TextStore {
	if publicPrefix == "" {
		publicPrefix = "/extracted_text"
	}
	return &TextStore{
		dir:    dir,
		prefix: "/" + strings.Trim(publicPrefix, "/"),
	}
}

// Dir returns the directory text files are written to
func (s *TextStore) Dir() string {
	return s.dir
}

// Prefix returns the URL prefix text files are served under
func (s *TextStore) Prefix() string {
	return s.prefix
}

// Save writes text to name inside the store, creating the directory if needed
func (s *TextStore) Save(name, text string) (string, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create extracted text directory: %w", err)
	}

	savedPath := filepath.Join(s.dir, name)
	if err := os.WriteFile(savedPath, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to save extracted text: %w", err)
	}
	return savedPath, nil
}

// URL returns the public URL for a saved file, derived from its basename
func (s *TextStore) URL(savedPath string) string {
	return path.Join(s.prefix, filepath.Base(savedPath))
}

// Resolve maps a requested file name to a path inside the store.
// Names that would escape the directory are rejected.
func (s *TextStore) Resolve(name string) (string, bool) {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}
