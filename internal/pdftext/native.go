// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// Native extracts text with the pure-Go PDF parser. It loses layout
// information relative to poppler but needs no external binary, which makes
// it the fallback backend and the only one used on systems without poppler.
type Native struct{}

// Name implements Backend.
func (Native) Name() string { return "native" }

// Available implements Backend; the native parser is always present.
func (Native) Available() bool { return true }

// ExtractPages parses the document and renders each page's plain text.
// The parser panics on some malformed files; the panic is converted into a
// corrupted-document error rather than taking down the worker.
func (Native) ExtractPages(ctx context.Context, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: parser panic: %v", ErrCorrupted, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, pageText(r.Page(i)))
	}
	return pages, nil
}

// pageText renders one page, swallowing per-page parser errors and panics:
// a single bad page should not discard the rest of the document.
func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if p.V.IsNull() {
		return ""
	}
	s, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return s
}

// ReadInfo returns the embedded Info dictionary fields. Embedded metadata is
// best-effort: any failure yields a zero EmbeddedInfo.
func ReadInfo(path string) (info types.EmbeddedInfo) {
	defer func() {
		if recover() != nil {
			info = types.EmbeddedInfo{}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return types.EmbeddedInfo{}
	}
	defer f.Close()

	dict := r.Trailer().Key("Info")
	if dict.IsNull() {
		return types.EmbeddedInfo{}
	}
	info.Title = strings.TrimSpace(dict.Key("Title").Text())
	info.Author = strings.TrimSpace(dict.Key("Author").Text())
	info.Year = yearFromPDFDate(dict.Key("CreationDate").Text())
	if info.Year == 0 {
		info.Year = yearFromPDFDate(dict.Key("ModDate").Text())
	}
	return info
}

// yearFromPDFDate parses the year out of a PDF date string ("D:YYYYMMDD...").
// Returns zero when the string does not carry a plausible year.
func yearFromPDFDate(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(s) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year < 1500 || year > 2999 {
		return 0
	}
	return year
}
