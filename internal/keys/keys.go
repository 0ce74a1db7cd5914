// Package keys builds deterministic cache ids from base keys and resolved
// context tokens, and implements the small set algebra used on context sets.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

const (
	Separator = ":"
	// MaxLength is the longest id passed to a provider unchanged.
	MaxLength = 255

	keepPrefix = 200
	hashChars  = 32
)

// Join concatenates base keys and tokens with Separator.
// Ids longer than MaxLength are shortened, see Shorten.
func Join(base []string, tokens ...string) string {
	parts := make([]string, 0, len(base)+len(tokens))
	parts = append(parts, base...)
	parts = append(parts, tokens...)
	return Shorten(strings.Join(parts, Separator))
}

// Shorten returns id unchanged when it fits MaxLength. Otherwise it keeps a
// readable prefix followed by a sha256 digest of the full id.
func Shorten(id string) string {
	if len(id) <= MaxLength {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return id[:keepPrefix] + Separator + hex.EncodeToString(sum[:])[:hashChars]
}

// Contexts returns a sorted copy of in without duplicates or empty names.
func Contexts(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c != "" {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	n := 0
	for i, c := range out {
		if i > 0 && c == out[n-1] {
			continue
		}
		out[n] = c
		n++
	}
	if n == 0 {
		return nil
	}
	return out[:n]
}

// The helpers below expect inputs normalized by Contexts.

// Subset reports whether every element of a is in b.
func Subset(a, b []string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case a[i] > b[j]:
			j++
		default:
			return false
		}
	}
	return i == len(a)
}

// Intersect returns the elements present in both a and b.
func Intersect(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// Union merges a and b.
func Union(a, b []string) []string {
	all := make([]string, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return Contexts(all)
}

// Equal reports whether a and b hold the same elements.
func Equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
