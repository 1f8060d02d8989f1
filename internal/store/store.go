// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extraction records in a SQLite index with
// full-text search over matched statements.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// Store manages the extraction record SQLite database.
type Store struct {
	db         *sql.DB
	dbPath     string
	maxResults int
}

// NewStore opens or creates the SQLite database at cfg.Path, creating
// the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dbPath:     cfg.Path,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			page_count INTEGER,
			title TEXT,
			authors TEXT,
			year INTEGER,
			doi TEXT,
			journal TEXT,
			volume TEXT,
			issue TEXT,
			field_sources TEXT,
			candidate_count INTEGER,
			status TEXT NOT NULL,
			diagnostic TEXT,
			run_id TEXT,
			processed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS statements (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_path TEXT NOT NULL REFERENCES documents(path),
			page INTEGER,
			paragraph TEXT NOT NULL,
			heuristic TEXT,
			match_offset INTEGER,
			classifier TEXT,
			rationale TEXT,
			fallback_reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_statements_document ON statements(document_path)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='statements_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE statements_fts USING fts5(paragraph, content=statements, content_rowid=rowid)`,
			`CREATE TRIGGER statements_ai AFTER INSERT ON statements BEGIN
				INSERT INTO statements_fts(rowid, paragraph) VALUES (new.rowid, new.paragraph);
			END`,
			`CREATE TRIGGER statements_ad AFTER DELETE ON statements BEGIN
				INSERT INTO statements_fts(statements_fts, rowid, paragraph) VALUES('delete', old.rowid, old.paragraph);
			END`,
			`CREATE TRIGGER statements_au AFTER UPDATE ON statements BEGIN
				INSERT INTO statements_fts(statements_fts, rowid, paragraph) VALUES('delete', old.rowid, old.paragraph);
				INSERT INTO statements_fts(rowid, paragraph) VALUES (new.rowid, new.paragraph);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveRun persists every record produced by one pipeline run. Documents
// processed in an earlier run are overwritten, along with their
// statements. Records with an empty path (documents a cancelled run
// never reached) are skipped.
func (s *Store) SaveRun(ctx context.Context, runID string, records []types.ExtractionRecord) error {
	for _, rec := range records {
		if rec.Path == "" {
			continue
		}
		if err := s.saveRecord(ctx, runID, rec); err != nil {
			return fmt.Errorf("saving %s: %w", rec.FileName, err)
		}
	}
	return nil
}

func (s *Store) saveRecord(ctx context.Context, runID string, rec types.ExtractionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove statements from any previous run of the same document.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM statements WHERE document_path = ?`, rec.Path,
	); err != nil {
		return fmt.Errorf("deleting old statements: %w", err)
	}

	authorsJSON, _ := json.Marshal(rec.Metadata.Authors)
	sourcesJSON, _ := json.Marshal(rec.Metadata.Sources)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (path, file_name, page_count, title, authors, year,
			doi, journal, volume, issue, field_sources,
			candidate_count, status, diagnostic, run_id, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			file_name=excluded.file_name, page_count=excluded.page_count,
			title=excluded.title, authors=excluded.authors, year=excluded.year,
			doi=excluded.doi, journal=excluded.journal, volume=excluded.volume,
			issue=excluded.issue, field_sources=excluded.field_sources,
			candidate_count=excluded.candidate_count, status=excluded.status,
			diagnostic=excluded.diagnostic, run_id=excluded.run_id,
			processed_at=excluded.processed_at`,
		rec.Path, rec.FileName, rec.PageCount, rec.Metadata.Title, string(authorsJSON),
		rec.Metadata.Year, rec.Metadata.DOI, rec.Metadata.Journal, rec.Metadata.Volume,
		rec.Metadata.Issue, string(sourcesJSON),
		rec.CandidateCount, string(rec.Status), rec.Diagnostic, runID,
		// Second precision keeps lexicographic order chronological.
		rec.ProcessedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO statements (id, document_path, page, paragraph, heuristic,
			match_offset, classifier, rationale, fallback_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range rec.Matches {
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(), rec.Path, m.Page, m.Paragraph, m.Trigger,
			m.Offset, m.Source, m.Rationale, m.FallbackReason,
		)
		if err != nil {
			return fmt.Errorf("inserting statement: %w", err)
		}
	}

	return tx.Commit()
}
