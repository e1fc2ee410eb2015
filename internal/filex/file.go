// Package filex provides small filesystem helpers for the client's local
// data directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDataDir creates dir (and parents) with private permissions and
// returns its absolute path. An empty dir resolves to "sophia-data" under
// the current working directory.
func EnsureDataDir(dir string) (string, error) {
	if dir == "" {
		dir = "sophia-data"
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}
