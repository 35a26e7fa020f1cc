// Package secrets reads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value, e.g. .secrets/GEMINI_API_KEY.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Lookup reads the secret called name from dir.
// A missing directory or file is not an error: present is false.
// An existing file with only whitespace returns present true and an empty value,
// so callers can tell "not configured" from "configured but empty".
func Lookup(dir, name string) (value string, present bool, err error) {
	if dir == "" || name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", false, nil
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading secret %s: %w", name, err)
	}
	if info.IsDir() {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", true, fmt.Errorf("reading secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}
