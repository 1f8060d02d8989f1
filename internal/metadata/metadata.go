// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata resolves bibliographic fields for extracted documents.
// Sources are consulted in a fixed order — embedded PDF properties,
// first-page header/footer heuristics, a DOI pattern scan, and finally the
// CrossRef API — and each field keeps the first non-empty value it is
// offered. A source that fails degrades the record, never the run.
package metadata

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// Field names used for per-field source attribution.
const (
	FieldTitle   = "title"
	FieldAuthors = "authors"
	FieldYear    = "year"
	FieldDOI     = "doi"
	FieldJournal = "journal"
	FieldVolume  = "volume"
	FieldIssue   = "issue"
)

// errNoData indicates a source had nothing to contribute for this
// document. The resolver treats it as a silent skip rather than a
// degraded lookup.
var errNoData = errors.New("no data for source")

// Fields is a partial set of bibliographic values produced by one source.
// Zero-valued fields are treated as absent.
type Fields struct {
	Title   string
	Authors []string
	Year    int
	DOI     string
	Journal string
	Volume  string
	Issue   string
}

// Source produces metadata fields from a document. The have argument
// carries the record accumulated by earlier sources, so a source can read
// values it depends on (CrossRef needs the DOI) or skip work that is
// already done.
type Source interface {
	Name() string
	Attempt(ctx context.Context, doc *types.Document, have types.MetadataRecord) (Fields, error)
}

// Resolver runs a chain of metadata sources over a document.
type Resolver struct {
	sources []Source
}

// New builds the standard source chain. The CrossRef source is appended
// only when remote lookup is enabled.
func New(cfg types.MetadataConfig) *Resolver {
	sources := []Source{
		embeddedSource{},
		headerFooterSource{},
		doiSource{},
	}
	if cfg.RemoteLookup {
		sources = append(sources, NewCrossRef(cfg))
	}
	return &Resolver{sources: sources}
}

// NewWithSources builds a resolver over an explicit chain. Used by tests.
func NewWithSources(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

// Resolve consults each source in order and merges results field by
// field: the first source to offer a value for a field wins, and the
// winning source is recorded in the Sources map. Source failures are
// logged and skipped — a document with no resolvable metadata yields an
// empty record, not an error.
func (r *Resolver) Resolve(ctx context.Context, doc *types.Document) types.MetadataRecord {
	rec := types.MetadataRecord{Sources: map[string]string{}}

	for _, src := range r.sources {
		if complete(rec) {
			break
		}
		fields, err := src.Attempt(ctx, doc, rec)
		if err != nil {
			if errors.Is(err, errNoData) {
				zap.L().Debug("metadata source skipped",
					zap.String("source", src.Name()),
					zap.String("path", doc.Path))
			} else {
				zap.L().Warn("metadata source failed",
					zap.String("source", src.Name()),
					zap.String("path", doc.Path),
					zap.Error(err))
			}
			continue
		}
		merge(&rec, fields, src.Name())
	}
	return rec
}

// merge copies each non-empty field of f into rec if rec does not hold a
// value for it yet, attributing the field to source.
func merge(rec *types.MetadataRecord, f Fields, source string) {
	if rec.Title == "" && f.Title != "" {
		rec.Title = f.Title
		rec.Sources[FieldTitle] = source
	}
	if len(rec.Authors) == 0 && len(f.Authors) > 0 {
		rec.Authors = f.Authors
		rec.Sources[FieldAuthors] = source
	}
	if rec.Year == 0 && f.Year != 0 {
		rec.Year = f.Year
		rec.Sources[FieldYear] = source
	}
	if rec.DOI == "" && f.DOI != "" {
		rec.DOI = f.DOI
		rec.Sources[FieldDOI] = source
	}
	if rec.Journal == "" && f.Journal != "" {
		rec.Journal = f.Journal
		rec.Sources[FieldJournal] = source
	}
	if rec.Volume == "" && f.Volume != "" {
		rec.Volume = f.Volume
		rec.Sources[FieldVolume] = source
	}
	if rec.Issue == "" && f.Issue != "" {
		rec.Issue = f.Issue
		rec.Sources[FieldIssue] = source
	}
}

// complete reports whether every field the chain can fill is filled.
func complete(rec types.MetadataRecord) bool {
	return rec.Title != "" && len(rec.Authors) > 0 && rec.Year != 0 &&
		rec.DOI != "" && rec.Journal != "" && rec.Volume != "" && rec.Issue != ""
}

// embeddedSource reads the PDF document information dictionary captured
// during text acquisition.
type embeddedSource struct{}

func (embeddedSource) Name() string { return types.SourceEmbedded }

func (embeddedSource) Attempt(_ context.Context, doc *types.Document, _ types.MetadataRecord) (Fields, error) {
	if doc.Info.IsZero() {
		return Fields{}, errNoData
	}
	f := Fields{
		Title: strings.TrimSpace(doc.Info.Title),
		Year:  doc.Info.Year,
	}
	if author := strings.TrimSpace(doc.Info.Author); author != "" {
		f.Authors = splitAuthors(author)
	}
	return f, nil
}

// splitAuthors breaks an embedded author string into individual names.
// PDF producers join multiple authors with semicolons or "and"; commas
// are left alone because they also appear inside "Family, Given" names.
func splitAuthors(s string) []string {
	parts := strings.Split(s, ";")
	if len(parts) == 1 {
		parts = strings.Split(s, " and ")
	}
	var authors []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			authors = append(authors, p)
		}
	}
	return authors
}
