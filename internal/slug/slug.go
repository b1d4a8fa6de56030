// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// MaxLength is the longest slug Generate will return. Matches the width of
// the slug columns.
const MaxLength = 200

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace matches runs of any whitespace.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// wellFormed is the shape of every slug Generate can return.
	wellFormed = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Generate creates a URL-friendly slug from the given string. Non-ASCII
// letters are transliterated first so accented titles keep their words.
// Example: "Café Crème, 2026!" → "cafe-creme-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLength {
		result = strings.TrimRight(result[:MaxLength], "-")
	}
	return result
}

// Valid reports whether s is already a slug: lowercase ASCII letters and
// digits in hyphen-separated runs, no longer than MaxLength.
func Valid(s string) bool {
	return len(s) <= MaxLength && wellFormed.MatchString(s)
}

// WithSuffix returns base with a numeric suffix appended, trimming base so the
// result stays within MaxLength. n <= 1 returns base unchanged.
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(suffix)], "-")
	}
	return base + suffix
}
