// Package taxonomy validates and manipulates hierarchical category paths.
//
// A path is a dot-separated sequence of labels, e.g. "projects.app.decisions".
// Labels are restricted to [a-z0-9_] and paths are bounded in depth so they
// stay safe to index and cheap to render in the primer taxonomy tree.
package taxonomy

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxDepth bounds path depth; deeper suggestions are truncated.
	MaxDepth = 6
	// DefaultPath is the catch-all for uncategorized content.
	DefaultPath = "reference.unknown"
	// PrimerPath is the reserved path of the synthesized primer memory.
	PrimerPath = "reference.system.primer"
	// ProfilePrefix roots the memories summarized into the primer's user
	// context section.
	ProfilePrefix = "profile"
)

var labelRe = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// SanitizeLabel lowercases a label and squashes disallowed characters.
func SanitizeLabel(s string) string {
	cleaned := strings.Trim(labelRe.ReplaceAllString(s, "_"), "_")
	cleaned = strings.ToLower(cleaned)
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}

// Sanitize normalizes a suggested path into a valid one. Slashes become
// separators, empty segments drop, depth is truncated, and a "user" root is
// rewritten to "profile" so identity facts land in one subtree.
func Sanitize(path string) string {
	path = strings.NewReplacer("/", ".", "\\", ".").Replace(path)
	var labels []string
	for _, seg := range strings.Split(path, ".") {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		labels = append(labels, SanitizeLabel(seg))
	}
	if len(labels) == 0 {
		return DefaultPath
	}
	if labels[0] == "user" {
		labels[0] = ProfilePrefix
	}
	if len(labels) > MaxDepth {
		labels = labels[:MaxDepth]
	}
	return strings.Join(labels, ".")
}

// Validate rejects malformed paths outright. Unlike Sanitize it does not
// repair; it is used where a caller supplies a path explicitly (rename,
// search filter) and silent rewriting would hide the mistake.
func Validate(path string) error {
	if path == "" {
		return fmt.Errorf("category path must not be empty")
	}
	labels := strings.Split(path, ".")
	if len(labels) > MaxDepth {
		return fmt.Errorf("category path %q exceeds max depth %d", path, MaxDepth)
	}
	for _, l := range labels {
		if l == "" {
			return fmt.Errorf("category path %q has an empty label", path)
		}
		if SanitizeLabel(l) != l {
			return fmt.Errorf("category path label %q contains invalid characters", l)
		}
	}
	return nil
}

// Descends reports whether path equals prefix or lies in its subtree.
func Descends(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+".")
}

// Rebase moves a path from one prefix to another. The path must descend from
// oldPrefix.
func Rebase(path, oldPrefix, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	return newPrefix + strings.TrimPrefix(path, oldPrefix)
}
