// Package paths provides lexical path containment checks for access control.
//
// Checks are purely lexical on slash-separated provider paths: inputs are
// cleaned, never resolved. Symlink resolution is the provider's concern;
// the organizer core never touches the host filesystem.
package paths

import (
	"path"
	"strings"
)

// Clean normalizes a provider path: slash-cleaned with trailing
// separators removed. Empty input stays empty.
func Clean(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// Contains reports whether target lies within root (or is root itself).
// Comparison is case-sensitive and separator-aware: "/data/archive" is
// not contained in "/data/arc".
func Contains(root, target string) bool {
	if root == "" || target == "" {
		return false
	}
	root = Clean(root)
	target = Clean(target)

	if root == target {
		return true
	}
	if root == "/" {
		return strings.HasPrefix(target, "/")
	}
	return strings.HasPrefix(target, root+"/")
}

// ContainsAny reports whether target lies within any of the roots.
func ContainsAny(roots []string, target string) bool {
	for _, root := range roots {
		if Contains(root, target) {
			return true
		}
	}
	return false
}
