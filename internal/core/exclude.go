package core

import (
	"path/filepath"
	"strings"
)

// MatchesExclude reports whether relPath matches any of the given
// arch-agnostic patterns. Patterns use gitignore-style globs:
//   - "*" matches any sequence of non-separator characters
//   - "**" matches any sequence of characters including separators
//   - "?" matches any single non-separator character
//
// Examples:
//   - "*.node" matches "addon.node" but not "Contents/Resources/addon.node"
//   - "Contents/Resources/licenses/**" matches everything under that directory
//   - "**/*.dat" matches any .dat file anywhere in the bundle
//
// All paths are normalized to forward slashes before matching. Files
// matching a pattern are allowed to differ between the two input bundles;
// the staging (x64) copy is kept.
func MatchesExclude(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		if matchGlob(normalized, filepath.ToSlash(pattern)) {
			return true
		}
	}
	return false
}

// matchGlob matches a forward-slash path against one glob pattern,
// handling "**" by anchoring the literal prefix and trying the remainder
// against every path tail.
func matchGlob(path, pattern string) bool {
	star := strings.Index(pattern, "**")
	if star < 0 {
		// Convert to the native separator so "*" stops at path
		// boundaries on every platform.
		matched, _ := filepath.Match(filepath.FromSlash(pattern), filepath.FromSlash(path))
		return matched
	}

	prefix := strings.TrimSuffix(pattern[:star], "/")
	rest := strings.TrimPrefix(pattern[star+2:], "/")

	if prefix != "" {
		if path == prefix {
			return rest == ""
		}
		if !strings.HasPrefix(path, prefix+"/") {
			return false
		}
		path = strings.TrimPrefix(path, prefix+"/")
	}
	if rest == "" {
		return true
	}

	// "**" may consume zero or more leading path segments.
	if matchGlob(path, rest) {
		return true
	}
	for i := 0; i < len(path); i++ {
		if path[i] == '/' && matchGlob(path[i+1:], rest) {
			return true
		}
	}
	return false
}
