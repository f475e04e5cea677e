// Package slug derives canonical lookup keys from document names, paths and link targets.
package slug

import "strings"

// Normalize converts a file stem into its canonical on-disk form: lowercase,
// spaces become underscores, and every byte that is not an ASCII letter,
// digit or underscore is removed. Normalize("") == "".
func Normalize(name string) string {
	lowered := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	return strings.Map(func(r rune) rune {
		if isKeyRune(r) {
			return r
		}
		return -1
	}, lowered)
}

// PathKey derives the index key for a slash-separated path relative to the
// corpus root. Only the ".ext" suffix is stripped; punctuation is kept.
func PathKey(rel, ext string) string {
	key := strings.TrimSuffix(rel, "."+ext)
	key = strings.ReplaceAll(key, "/", "_")
	return TargetKey(key)
}

// TargetKey derives the lookup probe for a raw link target.
func TargetKey(target string) string {
	return strings.ReplaceAll(strings.ToLower(target), " ", "_")
}

func isKeyRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
