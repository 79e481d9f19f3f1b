// Package colorkey canonicalizes colour labels into stock bucket keys.
// Every read and write of per-colour stock goes through Normalize.
package colorkey

import "strings"

// Normalize trims surrounding whitespace and lower-cases the label.
// An empty result means the colour is invalid.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Equal reports whether two labels address the same stock bucket.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Valid reports whether raw normalizes to a usable key.
func Valid(raw string) bool {
	return Normalize(raw) != ""
}
