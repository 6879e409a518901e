package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeJoin places a caller supplied name directly under root. Separators are
// stripped so the result never escapes root.
func SafeJoin(root, name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("unsafe path component %q", name)
	}
	return filepath.Join(root, base), nil
}
