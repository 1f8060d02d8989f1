// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// QueryOptions holds parameters for store queries.
type QueryOptions struct {
	// Search is the FTS5 full-text search string, matched against
	// statement paragraphs.
	Search string

	// Status filters documents by extraction status.
	Status types.ExtractionStatus

	// Heuristic filters statements by the cue that flagged them.
	Heuristic string

	// RunID filters by processing run.
	RunID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Search == "" && q.Status == "" && q.Heuristic == "" && q.RunID == ""
}

// StatementResult is a stored statement with its document context.
type StatementResult struct {
	types.Match
	ID           string `json:"id" yaml:"id"`
	DocumentPath string `json:"document_path" yaml:"document_path"`
	FileName     string `json:"filename" yaml:"filename"`
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
}

// List returns stored extraction records, newest first, with their
// statements reattached. Search and Heuristic filters do not apply;
// use SearchStatements for those.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.ExtractionRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT path, file_name, page_count, title, authors, year,
			doi, journal, volume, issue, field_sources,
			candidate_count, status, diagnostic, processed_at
		FROM documents
		WHERE 1=1`)

	if opts.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(opts.Status))
	}
	if opts.RunID != "" {
		qb.WriteString(` AND run_id = ?`)
		args = append(args, opts.RunID)
	}

	qb.WriteString(` ORDER BY processed_at DESC, path LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var records []types.ExtractionRecord
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		matches, err := s.statementsFor(ctx, records[i].Path)
		if err != nil {
			return nil, err
		}
		records[i].Matches = matches
	}

	return records, nil
}

func scanDocument(rows *sql.Rows) (types.ExtractionRecord, error) {
	var (
		rec         types.ExtractionRecord
		authorsJSON sql.NullString
		sourcesJSON sql.NullString
		status      string
		processedAt string
	)
	if err := rows.Scan(
		&rec.Path, &rec.FileName, &rec.PageCount, &rec.Metadata.Title,
		&authorsJSON, &rec.Metadata.Year, &rec.Metadata.DOI,
		&rec.Metadata.Journal, &rec.Metadata.Volume, &rec.Metadata.Issue,
		&sourcesJSON, &rec.CandidateCount, &status, &rec.Diagnostic,
		&processedAt,
	); err != nil {
		return rec, fmt.Errorf("scanning document row: %w", err)
	}

	rec.Status = types.ExtractionStatus(status)
	if authorsJSON.Valid {
		json.Unmarshal([]byte(authorsJSON.String), &rec.Metadata.Authors)
	}
	if sourcesJSON.Valid {
		json.Unmarshal([]byte(sourcesJSON.String), &rec.Metadata.Sources)
	}
	if t, err := time.Parse(time.RFC3339Nano, processedAt); err == nil {
		rec.ProcessedAt = t
	}
	return rec, nil
}

func (s *Store) statementsFor(ctx context.Context, docPath string) ([]types.Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page, paragraph, heuristic, match_offset, classifier, rationale, fallback_reason
		 FROM statements WHERE document_path = ?
		 ORDER BY page, match_offset`, docPath)
	if err != nil {
		return nil, fmt.Errorf("querying statements: %w", err)
	}
	defer rows.Close()

	var matches []types.Match
	for rows.Next() {
		var m types.Match
		m.Match = true
		if err := rows.Scan(
			&m.Page, &m.Paragraph, &m.Trigger, &m.Offset,
			&m.Source, &m.Rationale, &m.FallbackReason,
		); err != nil {
			return nil, fmt.Errorf("scanning statement row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// SearchStatements queries stored statements with optional full-text
// search and structured filters. Results are ranked by relevance for
// full-text queries or sorted by document and page otherwise.
func (s *Store) SearchStatements(ctx context.Context, opts QueryOptions) ([]StatementResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Search != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT st.id, st.document_path, st.page, st.paragraph, st.heuristic,
				st.match_offset, st.classifier, st.rationale, st.fallback_reason,
				d.file_name, d.title, statements_fts.rank
			FROM statements_fts
			JOIN statements st ON st.rowid = statements_fts.rowid
			LEFT JOIN documents d ON st.document_path = d.path
			WHERE statements_fts MATCH ?`)
		args = append(args, opts.Search)
	} else {
		qb.WriteString(
			`SELECT st.id, st.document_path, st.page, st.paragraph, st.heuristic,
				st.match_offset, st.classifier, st.rationale, st.fallback_reason,
				d.file_name, d.title, 0 AS rank
			FROM statements st
			LEFT JOIN documents d ON st.document_path = d.path
			WHERE 1=1`)
	}

	if opts.Heuristic != "" {
		qb.WriteString(` AND st.heuristic = ?`)
		args = append(args, opts.Heuristic)
	}
	if opts.RunID != "" {
		qb.WriteString(` AND d.run_id = ?`)
		args = append(args, opts.RunID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY statements_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY st.document_path, st.page, st.match_offset`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying statements: %w", err)
	}
	defer rows.Close()

	var results []StatementResult
	for rows.Next() {
		var (
			sr       StatementResult
			fileName sql.NullString
			title    sql.NullString
			rank     float64
		)
		sr.Match.Match = true

		if err := rows.Scan(
			&sr.ID, &sr.DocumentPath, &sr.Page, &sr.Paragraph, &sr.Trigger,
			&sr.Offset, &sr.Source, &sr.Rationale, &sr.FallbackReason,
			&fileName, &title, &rank,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if fileName.Valid {
			sr.FileName = fileName.String
		}
		if title.Valid {
			sr.Title = title.String
		}

		results = append(results, sr)
	}

	return results, rows.Err()
}
