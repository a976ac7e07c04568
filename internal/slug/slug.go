// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation for invitation pages.
package slug

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the longest slug accepted for an invitation.
const MaxLength = 120

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace runs become a single hyphen.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// valid is the shape of a stored slug.
	valid = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// foldAccents strips combining marks after decomposition ("Sití" → "Siti").
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(foldAccents(s)))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLength {
		result = strings.TrimRight(result[:MaxLength], "-")
	}
	return result
}

// ForCouple builds the default invitation slug, e.g. "siti-budi".
// Either name may be blank; when both are, it returns "wedding".
func ForCouple(bride, groom string) string {
	parts := make([]string, 0, 2)
	for _, name := range []string{bride, groom} {
		if s := Generate(name); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "wedding"
	}
	return Generate(strings.Join(parts, "-"))
}

// WithSuffix appends a short random suffix to base, used when the plain
// slug is already taken. The result still fits MaxLength.
func WithSuffix(base string) string {
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("slug: crypto/rand failed: " + err.Error())
	}
	suffix := hex.EncodeToString(b[:])
	if max := MaxLength - len(suffix) - 1; len(base) > max {
		base = strings.TrimRight(base[:max], "-")
	}
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Valid reports whether s is an acceptable, already-normalized slug.
func Valid(s string) bool {
	return len(s) <= MaxLength && valid.MatchString(s)
}
