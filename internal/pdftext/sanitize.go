// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalizeText folds common PDF extraction artifacts so both backends
// produce comparable page text: NFKC normalization collapses ligatures
// (fi, ffl) the layout engines emit as single code points, control
// characters other than newline and tab are dropped, line endings are
// unified, and trailing per-line whitespace is trimmed.
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	if strings.TrimSpace(out) == "" {
		return ""
	}
	return out
}
