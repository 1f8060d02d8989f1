// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// Journal banners on the first page usually carry volume and issue next
// to the journal name, in one of a few house styles:
//
//	Qualitative Inquiry, Vol. 27, Issue 3
//	Journal of Mixed Methods Research Volume 15 No. 2
var journalPattern = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z &\-:]+?),?\s+Vol(?:ume)?\.?\s*(\d+)\s*[,.]?\s*(?:No|Num(?:ber)?|Iss(?:ue)?)\.?\s*(\d+)`)

// copyrightYearPattern matches an explicit publication year, either a
// copyright mark or a parenthesized year as used in running heads.
var copyrightYearPattern = regexp.MustCompile(`(?:©|\(c\)|Copyright\s*©?)\s*(\d{4})|\((\d{4})\)`)

// namePartPattern matches one personal name: two to four capitalized
// words, allowing initials, hyphens and apostrophes.
var namePartPattern = regexp.MustCompile(`^[A-Z][A-Za-z.\-']*(?:\s+[A-Z][A-Za-z.\-']*){1,3}$`)

const (
	headerLines = 10
	footerLines = 5
)

// headerFooterSource guesses title, authors, journal, volume, issue and
// year from the first page's header and footer regions. All results are
// heuristic; later sources never overwrite them because of the
// first-value-wins merge, so the patterns stay deliberately conservative.
type headerFooterSource struct{}

func (headerFooterSource) Name() string { return types.SourceHeaderFooter }

func (headerFooterSource) Attempt(_ context.Context, doc *types.Document, _ types.MetadataRecord) (Fields, error) {
	page := doc.Page(1)
	if strings.TrimSpace(page) == "" {
		return Fields{}, errNoData
	}

	lines := nonEmptyLines(page)
	region := scanRegion(lines)

	var f Fields
	for _, line := range region {
		if m := journalPattern.FindStringSubmatch(line); m != nil {
			f.Journal = strings.TrimSpace(m[1])
			f.Volume = m[2]
			f.Issue = m[3]
			break
		}
	}
	for _, line := range region {
		if m := copyrightYearPattern.FindStringSubmatch(line); m != nil {
			y := m[1]
			if y == "" {
				y = m[2]
			}
			if year, err := strconv.Atoi(y); err == nil && year >= 1800 && year <= 2999 {
				f.Year = year
				break
			}
		}
	}

	// The title is the first header line that reads like one; the byline
	// commonly follows on the next line.
	header := lines
	if len(header) > headerLines {
		header = header[:headerLines]
	}
	for i, line := range header {
		if !looksLikeTitle(line) {
			continue
		}
		f.Title = strings.TrimSpace(line)
		if i+1 < len(header) {
			if authors := parseNameList(header[i+1]); len(authors) > 0 {
				f.Authors = authors
			}
		}
		break
	}

	if f.Title == "" && f.Journal == "" && f.Year == 0 && len(f.Authors) == 0 {
		return Fields{}, errNoData
	}
	return f, nil
}

// nonEmptyLines splits a page into trimmed, non-blank lines.
func nonEmptyLines(page string) []string {
	var lines []string
	for _, line := range strings.Split(page, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// scanRegion returns the first headerLines and last footerLines of the
// page, without duplicating lines on short pages.
func scanRegion(lines []string) []string {
	if len(lines) <= headerLines+footerLines {
		return lines
	}
	region := make([]string, 0, headerLines+footerLines)
	region = append(region, lines[:headerLines]...)
	region = append(region, lines[len(lines)-footerLines:]...)
	return region
}

// looksLikeTitle filters header lines down to plausible article titles:
// a handful of words, mostly letters, not a banner line that carries
// volume/issue markers, a DOI, or an all-caps running head.
func looksLikeTitle(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 15 || len(line) > 200 {
		return false
	}
	if strings.Count(line, " ") < 2 {
		return false
	}
	if journalPattern.MatchString(line) || doiPattern.MatchString(line) {
		return false
	}
	var letters, digits, upper int
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		case unicode.IsDigit(r):
			digits++
		}
	}
	if letters == 0 || digits > letters/4 {
		return false
	}
	// Running heads and banners are commonly set in full caps.
	if upper > letters*3/4 {
		return false
	}
	return true
}

// parseNameList splits a byline into author names. Every segment must
// look like a personal name or the whole line is rejected — page one
// carries too much prose to accept loose matches.
func parseNameList(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 200 {
		return nil
	}
	normalized := strings.NewReplacer(" and ", ",", " & ", ",").Replace(line)
	parts := strings.Split(normalized, ",")
	if len(parts) > 8 {
		return nil
	}
	var authors []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !namePartPattern.MatchString(p) {
			return nil
		}
		authors = append(authors, p)
	}
	return authors
}
