package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ensureDir creates folder and its parents when missing
func ensureDir(folder string) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", folder, err)
	}
	return nil
}

// uniquePath returns folder/name, or folder/name_N.ext for the first N that
// does not exist yet, so an existing file is never overwritten
func uniquePath(folder, name string) string {
	candidate := filepath.Join(folder, name)
	if !fileExists(candidate) {
		return candidate
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate = filepath.Join(folder, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !fileExists(candidate) {
			return candidate
		}
	}
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// fileSize returns the size of path, or -1 when it cannot be read
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return -1
	}
	return info.Size()
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
