// Package validation checks names and paths that come from remote manifests
// before they touch the local filesystem.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilename validates a single path element (not a full path).
//
// Returns an error if the filename:
//   - Is empty
//   - Contains path separators (/ or \)
//   - Is exactly ".." or "."
//   - Contains null bytes
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %q", filename)
	}
	if strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}
	// Names such as "data..v2.csv" are fine; only the literal references are not.
	if filename == ".." || filename == "." {
		return fmt.Errorf("filename cannot be %q", filename)
	}
	return nil
}

// ValidateEntryPath validates a slash-separated relative path taken from a
// directory manifest. Every element must pass ValidateFilename.
func ValidateEntryPath(entry string) error {
	if entry == "" {
		return fmt.Errorf("entry path cannot be empty")
	}
	if strings.HasPrefix(entry, "/") || filepath.IsAbs(entry) || filepath.VolumeName(entry) != "" {
		return fmt.Errorf("entry path must be relative: %s", entry)
	}
	for _, elem := range strings.Split(entry, "/") {
		if err := ValidateFilename(elem); err != nil {
			return fmt.Errorf("invalid entry path %s: %w", entry, err)
		}
	}
	return nil
}

// ValidatePathInDirectory validates that a path, when resolved, stays within baseDir.
//
// Both path and baseDir are cleaned and made absolute before comparison.
//
//	ValidatePathInDirectory("../../etc/passwd", "/tmp/out") // error: escapes base dir
//	ValidatePathInDirectory("sub/file.txt", "/tmp/out")     // ok
func ValidatePathInDirectory(path string, baseDir string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains null byte: %q", path)
	}

	base, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolved := filepath.Clean(filepath.FromSlash(path))
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(base, resolved)
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s (base: %s)", path, baseDir)
	}
	return nil
}

// WithinDirectory returns a predicate accepting entry paths that are valid
// relative paths resolving inside baseDir.
func WithinDirectory(baseDir string) func(entry string) bool {
	return func(entry string) bool {
		if err := ValidateEntryPath(entry); err != nil {
			return false
		}
		return ValidatePathInDirectory(entry, baseDir) == nil
	}
}
