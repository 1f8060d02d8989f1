// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect locates candidate positionality passages in acquired
// page text. Detection is purely lexical: a fixed table of cue-phrase
// patterns is run over each paragraph, and any paragraph containing a
// cue becomes a candidate for classification. The table is ordered from
// most to least specific so the recorded trigger names the strongest cue
// present.
package detect

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// heuristic pairs a cue-phrase pattern with the stable name recorded on
// candidates it produces.
type heuristic struct {
	name    string
	pattern *regexp.Regexp
}

// Cue-phrase table. Order matters: the first matching heuristic names
// the candidate's trigger.
var heuristics = []heuristic{
	{"explicit-positionality", regexp.MustCompile(`(?i)\bpositionality statement\b`)},
	{"positionality-term", regexp.MustCompile(`(?i)\bpositionalit(?:y|ies)\b`)},
	{"researcher-self", regexp.MustCompile(`(?i)\bas (?:a|an|the) (?:[\w-]+ ){0,3}researchers?\b`)},
	{"author-self", regexp.MustCompile(`(?i)\bas (?:a|an|the) (?:[\w-]+ ){0,3}authors?\b`)},
	{"role-declaration", regexp.MustCompile(`(?i)\b(?:my|our) (?:role|position|perspective|background) as\b`)},
	{"identity-disclosure", regexp.MustCompile(`(?i)\b(?:i|we) identify as\b`)},
	{"first-person-position", regexp.MustCompile(`(?i)\b(?:i|we) (?:am|are) positioned\b`)},
	{"first-person-situated", regexp.MustCompile(`(?i)\b(?:i|we) (?:am|are) situated\b`)},
	{"reflexivity-term", regexp.MustCompile(`(?i)\breflexiv(?:e|ity|ely)\b`)},
	{"standpoint-term", regexp.MustCompile(`(?i)\bstandpoint\b`)},
	{"identity-term", regexp.MustCompile(`(?i)\bidentit(?:y|ies)\b`)},
}

const (
	// minParagraphRunes filters out headings, page numbers and other
	// fragments that cannot carry a full statement.
	minParagraphRunes = 40

	// maxParagraphRunes bounds the candidate text handed to the
	// classifier. Oversized paragraphs are snipped around the cue so
	// the trigger always survives the cap.
	maxParagraphRunes = 2000
)

// Detector scans documents for candidate passages.
type Detector struct{}

// New returns a detector with the standard cue-phrase table.
func New() *Detector { return &Detector{} }

// Names lists the trigger names in table order.
func Names() []string {
	names := make([]string, len(heuristics))
	for i, h := range heuristics {
		names[i] = h.name
	}
	return names
}

// Detect returns one candidate per cue-bearing paragraph, in page order.
// The offset is the byte position of the cue match within the page text.
func (d *Detector) Detect(doc *types.Document) []types.Candidate {
	var candidates []types.Candidate
	for n := 1; n <= doc.PageCount; n++ {
		candidates = append(candidates, d.scanPage(n, doc.Page(n))...)
	}
	return candidates
}

func (d *Detector) scanPage(page int, text string) []types.Candidate {
	var candidates []types.Candidate
	for _, b := range blocks(text) {
		folded := strings.ReplaceAll(b.text, "\n", " ")
		if utf8.RuneCountInString(folded) < minParagraphRunes {
			continue
		}
		for _, h := range heuristics {
			loc := h.pattern.FindStringIndex(folded)
			if loc == nil {
				continue
			}
			candidates = append(candidates, types.Candidate{
				Page:      page,
				Paragraph: clampParagraph(folded, loc[0], loc[1]),
				Trigger:   h.name,
				Offset:    b.start + loc[0],
			})
			break
		}
	}
	return candidates
}

// block is a paragraph with its byte offset in the page text.
type block struct {
	start int
	text  string
}

// blocks splits page text into paragraphs at blank lines, tracking the
// byte offset where each paragraph begins.
func blocks(text string) []block {
	var out []block
	start := -1
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if start >= 0 {
				out = append(out, block{start: start, text: strings.TrimRight(text[start:offset], "\n")})
				start = -1
			}
		} else if start < 0 {
			start = offset
		}
		offset += len(line)
	}
	if start >= 0 {
		out = append(out, block{start: start, text: strings.TrimRight(text[start:], "\n")})
	}
	return out
}

// clampParagraph returns text unchanged when it fits the cap, otherwise
// a window of at most maxParagraphRunes runes positioned so the match at
// [start,end) is retained.
func clampParagraph(text string, start, end int) string {
	if utf8.RuneCountInString(text) <= maxParagraphRunes {
		return strings.TrimSpace(text)
	}
	s := start
	for n := 0; n < maxParagraphRunes/2 && s > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:s])
		s -= size
	}
	e := s
	for n := 0; n < maxParagraphRunes && e < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[e:])
		e += size
	}
	if e < end {
		e = end
	}
	return strings.TrimSpace(text[s:e])
}
