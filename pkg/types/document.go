// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Document holds the extracted text of one input PDF. It is produced once by
// text acquisition and treated as immutable by every later stage.
type Document struct {
	// Path is the filesystem path of the source PDF.
	Path string `json:"path" yaml:"path"`

	// PageCount is the number of pages reported by the winning backends.
	PageCount int `json:"page_count" yaml:"page_count"`

	// Pages holds the plain text of each page; index 0 is page 1. A page
	// with no extractable text is an empty string.
	Pages []string `json:"-" yaml:"-"`

	// PageSources names the backend that supplied each page ("poppler",
	// "native", or "" when no backend produced text for that page).
	PageSources []string `json:"page_sources,omitempty" yaml:"page_sources,omitempty"`

	// Info carries fields from the embedded PDF Info dictionary, when present.
	Info EmbeddedInfo `json:"info" yaml:"info"`
}

// Page returns the text of the 1-based page n, or "" when out of range.
func (d *Document) Page(n int) string {
	if n < 1 || n > len(d.Pages) {
		return ""
	}
	return d.Pages[n-1]
}

// EmbeddedInfo is the subset of the PDF Info dictionary consumed by the
// metadata resolver.
type EmbeddedInfo struct {
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Year is parsed from the CreationDate or ModDate entry
	// ("D:YYYYMMDD..."). Zero when neither is present.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`
}

// IsZero reports whether no embedded metadata was found.
func (i EmbeddedInfo) IsZero() bool {
	return i.Title == "" && i.Author == "" && i.Year == 0
}
