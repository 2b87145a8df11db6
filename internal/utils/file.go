package utils

import (
	"os"
	"path/filepath"
)

// Truncates a file at a given offset and syncs it
func TruncateAt(f *os.File, offset int64) error {
	if err := f.Truncate(offset); err != nil {
		return err
	}
	return f.Sync()
}

// Indicates if the given path exists or not (works for both files and directories)
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolveDirectory turns dir into an absolute path, using the current
// working directory when dir is empty.
func ResolveDirectory(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	return filepath.Abs(dir)
}
