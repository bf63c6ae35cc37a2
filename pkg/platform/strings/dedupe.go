// Package strings provides string list utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element, drops empty ones and removes duplicates
// while keeping first-seen order. A nil input stays nil.
//
//	DedupeAndTrim([]string{" author", "author", "", "admin"})
//	// []string{"author", "admin"}
func DedupeAndTrim(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Prepend returns head followed by tail as a fresh slice; tail is not modified.
func Prepend(head string, tail []string) []string {
	out := make([]string, 0, len(tail)+1)
	out = append(out, head)
	return append(out, tail...)
}
