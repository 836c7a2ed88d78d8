package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePath rejects empty paths, paths that still contain ".." after
// cleaning, and absolute paths unless allowAbsolute is set.
func ValidatePath(path string, allowAbsolute bool) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains directory traversal: %s", path)
	}
	if !allowAbsolute && filepath.IsAbs(cleanPath) {
		return fmt.Errorf("absolute paths not allowed: %s", path)
	}
	return nil
}

// SecureJoin joins elements onto base and fails if the result is not base
// or a descendant of it.
func SecureJoin(base string, elements ...string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base path cannot be empty")
	}

	cleanBase := filepath.Clean(base)
	fullPath := filepath.Join(append([]string{cleanBase}, elements...)...)

	prefix := cleanBase
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if fullPath != cleanBase && !strings.HasPrefix(fullPath, prefix) {
		return "", fmt.Errorf("path escapes base directory")
	}
	return fullPath, nil
}

// ResolveWithinBase maps a driver-relative name such as `\dir\file.txt` onto
// a host path under root. Both separators are accepted; the result never
// leaves root. The root itself is returned for `\` and the empty name.
func ResolveWithinBase(root, name string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("base path cannot be empty")
	}

	rel := strings.ReplaceAll(name, `\`, "/")
	rel = strings.TrimLeft(rel, "/")
	if rel == "" {
		return filepath.Clean(root), nil
	}

	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return "", fmt.Errorf("path contains directory traversal: %s", name)
		}
	}

	return SecureJoin(root, filepath.FromSlash(rel))
}
