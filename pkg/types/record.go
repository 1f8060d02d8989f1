// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Resolver source names recorded in MetadataRecord.Sources.
const (
	SourceEmbedded     = "embedded"
	SourceHeaderFooter = "header-footer"
	SourceDOIPattern   = "doi-pattern"
	SourceCrossRef     = "crossref"
)

// MetadataRecord holds resolved bibliographic metadata for one document.
// Each field is populated by at most one source in the resolver chain;
// once set, a field is never overwritten by a later source.
type MetadataRecord struct {
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`
	DOI     string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	Journal string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Volume  string   `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue   string   `json:"issue,omitempty" yaml:"issue,omitempty"`

	// Sources maps a field name ("title", "authors", "year", "doi",
	// "journal", "volume", "issue") to the resolver source that set it.
	Sources map[string]string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Candidate is a paragraph span flagged by heuristic detection as possibly
// containing a positionality statement, pending classification.
type Candidate struct {
	// Page is the 1-based page number the paragraph was found on.
	Page int `json:"page" yaml:"page"`

	// Paragraph is the containing paragraph of the trigger match, bounded
	// by blank lines, with internal line breaks folded to spaces.
	Paragraph string `json:"paragraph" yaml:"paragraph"`

	// Trigger names the heuristic that flagged the paragraph.
	Trigger string `json:"trigger" yaml:"trigger"`

	// Offset is the byte offset of the trigger match within the page text.
	// It exists to give candidates a deterministic order within a page.
	Offset int `json:"offset" yaml:"offset"`
}

// Classification confidence sources.
const (
	ClassifierAI    = "ai"
	ClassifierRegex = "regex"
)

// Classification is the verdict for one candidate. When the AI backend is
// disabled, fails, or returns an unparseable reply, the candidate still
// carries a regex-sourced verdict; a candidate is never dropped silently.
type Classification struct {
	// Match reports whether the candidate was judged a true statement.
	Match bool `json:"match" yaml:"match"`

	// Source is ClassifierAI or ClassifierRegex.
	Source string `json:"source" yaml:"source"`

	// Rationale is the free-text explanation from the AI backend.
	// Empty for regex-sourced verdicts.
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`

	// FallbackReason explains why an AI verdict was downgraded to the
	// regex verdict. Empty when no fallback occurred.
	FallbackReason string `json:"fallback_reason,omitempty" yaml:"fallback_reason,omitempty"`
}

// Match pairs a candidate with its classification in the final record.
// Both parts are embedded so their fields marshal flat.
type Match struct {
	Candidate      `yaml:",inline"`
	Classification `yaml:",inline"`
}

// ExtractionStatus is the document-level outcome of a pipeline run.
type ExtractionStatus string

const (
	// StatusOK means at least one candidate classified as a match.
	StatusOK ExtractionStatus = "ok"

	// StatusNoMatch means the document was readable but no candidate
	// matched (including the zero-candidate case).
	StatusNoMatch ExtractionStatus = "no-match"

	// StatusError means text acquisition failed; Diagnostic says why.
	StatusError ExtractionStatus = "error"
)

// ExtractionRecord is the final unit of output, one per input document.
// It is immutable once returned by the aggregator.
type ExtractionRecord struct {
	Path     string `json:"path" yaml:"path"`
	FileName string `json:"filename" yaml:"filename"`

	// PageCount is zero when acquisition failed.
	PageCount int `json:"page_count,omitempty" yaml:"page_count,omitempty"`

	Metadata MetadataRecord `json:"metadata" yaml:"metadata"`

	// Matches lists the candidates that classified as true statements,
	// in document order.
	Matches []Match `json:"matches,omitempty" yaml:"matches,omitempty"`

	// CandidateCount is the total number of detected candidates,
	// matched or not.
	CandidateCount int `json:"candidate_count" yaml:"candidate_count"`

	Status ExtractionStatus `json:"status" yaml:"status"`

	// Diagnostic carries the acquisition failure detail for StatusError
	// records ("encrypted", "corrupted", "no-text-layer", ...).
	Diagnostic string `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`

	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
}

// Found reports whether the document contained at least one matched statement.
func (r *ExtractionRecord) Found() bool {
	return len(r.Matches) > 0
}

// Statement returns the text of the first matched statement, or "".
func (r *ExtractionRecord) Statement() string {
	if len(r.Matches) == 0 {
		return ""
	}
	return r.Matches[0].Paragraph
}
