// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext implements per-page PDF text acquisition with pluggable
// backends. Backends are tried in a fixed priority order and the first one
// that yields non-empty text for a page wins that page, so a single document
// may draw different pages from different backends.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// Sentinel failures a backend can report. The extractor maps them to the
// document-level diagnostics carried by error records.
var (
	// ErrEncrypted marks a password-protected document.
	ErrEncrypted = errors.New("pdf is password-protected")

	// ErrCorrupted marks a document no backend could parse.
	ErrCorrupted = errors.New("pdf cannot be parsed")

	// ErrNoTextLayer marks a readable document whose pages all came back
	// empty, typically a scanned image without an OCR layer.
	ErrNoTextLayer = errors.New("pdf has no extractable text layer")
)

// Backend extracts per-page plain text from a PDF file.
type Backend interface {
	// Name identifies the backend in Document.PageSources.
	Name() string

	// Available reports whether the backend can run at all (for example,
	// whether its external binary exists). Unavailable backends are
	// skipped, not treated as failures.
	Available() bool

	// ExtractPages returns the text of every page in order. Recognizable
	// failures wrap ErrEncrypted or ErrCorrupted.
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// Extractor runs the backend chain and merges their output per page.
type Extractor struct {
	backends []Backend
}

// New builds the standard backend chain: the layout-aware poppler backend
// first, the native parser second.
func New(cfg types.AcquisitionConfig) *Extractor {
	return &Extractor{backends: []Backend{
		NewPoppler(cfg.PdftotextPath),
		Native{},
	}}
}

// NewWithBackends builds an extractor over an explicit backend chain.
// Tests use it to control backend behavior.
func NewWithBackends(backends ...Backend) *Extractor {
	return &Extractor{backends: backends}
}

// Extract produces the Document for one PDF. A non-nil error means text
// acquisition failed for the whole document; the error wraps one of the
// sentinels above where the failure is recognizable. Extract performs no
// network access and writes no files.
func (e *Extractor) Extract(ctx context.Context, path string) (*types.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	type attempt struct {
		name  string
		pages []string
	}
	var (
		attempts []attempt
		failures []error
	)
	for _, b := range e.backends {
		if !b.Available() {
			zap.L().Debug("pdf backend unavailable", zap.String("backend", b.Name()))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages, err := b.ExtractPages(ctx, path)
		if err != nil {
			zap.L().Debug("pdf backend failed",
				zap.String("backend", b.Name()),
				zap.String("path", path),
				zap.Error(err))
			failures = append(failures, err)
			continue
		}
		for i := range pages {
			pages[i] = normalizeText(pages[i])
		}
		attempts = append(attempts, attempt{name: b.Name(), pages: pages})
	}

	if len(attempts) == 0 {
		return nil, combineFailures(path, failures)
	}

	pageCount := 0
	for _, a := range attempts {
		if len(a.pages) > pageCount {
			pageCount = len(a.pages)
		}
	}

	doc := &types.Document{
		Path:        path,
		PageCount:   pageCount,
		Pages:       make([]string, pageCount),
		PageSources: make([]string, pageCount),
	}
	empty := true
	for i := 0; i < pageCount; i++ {
		for _, a := range attempts {
			if i < len(a.pages) && a.pages[i] != "" {
				doc.Pages[i] = a.pages[i]
				doc.PageSources[i] = a.name
				empty = false
				break
			}
		}
	}
	if empty {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTextLayer)
	}

	doc.Info = ReadInfo(path)
	return doc, nil
}

// combineFailures picks the most specific error when every backend failed.
func combineFailures(path string, failures []error) error {
	for _, err := range failures {
		if errors.Is(err, ErrEncrypted) {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, err := range failures {
		if errors.Is(err, ErrCorrupted) {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%s: %w", path, failures[0])
	}
	return fmt.Errorf("%s: no pdf backend available", path)
}

// Diagnostic maps an acquisition error to the short status detail recorded
// on error records.
func Diagnostic(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEncrypted):
		return "encrypted"
	case errors.Is(err, ErrCorrupted):
		return "corrupted"
	case errors.Is(err, ErrNoTextLayer):
		return "no-text-layer"
	case errors.Is(err, os.ErrNotExist):
		return "not-found"
	default:
		return err.Error()
	}
}
