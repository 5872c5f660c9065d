// Package filename provides utilities for sanitizing strings into safe filenames.
package filename

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// invalidCharsRe matches characters not safe for filenames across all major OSes.
var invalidCharsRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// multiDash collapses runs of dashes/underscores.
var multiDash = regexp.MustCompile(`[-_]{2,}`)

// Sanitize converts an arbitrary string into a filename-safe slug. Input is
// NFC-normalized first so visually identical names map to the same bytes.
// Leading/trailing dashes and dots are stripped. The output is truncated to
// maxLen bytes (defaults to 120) without splitting a UTF-8 sequence.
func Sanitize(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 120
	}

	s := strings.TrimSpace(norm.NFC.String(name))
	if s == "" {
		return ""
	}

	s = invalidCharsRe.ReplaceAllString(s, "-")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return '-'
		}
		return r
	}, s)
	s = multiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")

	if len(s) > maxLen {
		s = s[:maxLen]
		for !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
		s = strings.TrimRight(s, "-.")
	}

	return s
}

// Upload sanitizes a client-supplied upload name, keeping its extension.
// Only the base name is considered so directory components are dropped.
// An empty result falls back to "upload".
func Upload(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	rawExt := filepath.Ext(base)

	stem := Sanitize(strings.TrimSuffix(base, rawExt), 100)
	if stem == "" {
		stem = "upload"
	}
	ext := Sanitize(strings.ToLower(strings.TrimPrefix(rawExt, ".")), 10)
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}
