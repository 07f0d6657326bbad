package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxPathLength = 4096

// DataPath checks a database or index path from the config and returns it
// cleaned. The path must be absolute after config expansion and must not
// point at an existing file of the wrong kind.
func DataPath(path string, wantDir bool) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > maxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", maxPathLength)
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains a null byte")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("path must be absolute: %s", path)
	}

	clean := filepath.Clean(path)
	if info, err := os.Stat(clean); err == nil && info.IsDir() != wantDir {
		if wantDir {
			return "", fmt.Errorf("path exists but is not a directory: %s", clean)
		}
		return "", fmt.Errorf("path is a directory, not a file: %s", clean)
	}
	return clean, nil
}
