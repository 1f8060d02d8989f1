// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// ExportEntry holds one document with its matched statements for export.
type ExportEntry struct {
	Path        string               `json:"path" yaml:"path"`
	FileName    string               `json:"filename" yaml:"filename"`
	PageCount   int                  `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	Metadata    types.MetadataRecord `json:"metadata" yaml:"metadata"`
	Status      string               `json:"status" yaml:"status"`
	Diagnostic  string               `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
	Statements  []ExportStatement    `json:"statements,omitempty" yaml:"statements,omitempty"`
	ProcessedAt string               `json:"processed_at" yaml:"processed_at"`
}

// ExportStatement is the statement-level payload of an export entry.
type ExportStatement struct {
	Page       int    `json:"page" yaml:"page"`
	Paragraph  string `json:"paragraph" yaml:"paragraph"`
	Heuristic  string `json:"heuristic" yaml:"heuristic"`
	Classifier string `json:"classifier" yaml:"classifier"`
	Rationale  string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

const exportLimit = 100000

// ExportYAML writes stored records to path as YAML. An empty path
// defaults to export.yaml next to the database. It supports the same
// filters as List.
func (s *Store) ExportYAML(ctx context.Context, path string, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	if path == "" {
		path = filepath.Join(filepath.Dir(s.dbPath), "export.yaml")
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes stored records to path as JSON. An empty path
// defaults to export.json next to the database. It supports the same
// filters as List.
func (s *Store) ExportJSON(ctx context.Context, path string, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	if path == "" {
		path = filepath.Join(filepath.Dir(s.dbPath), "export.json")
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	records, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(records))
	for i, rec := range records {
		entries[i] = ExportEntry{
			Path:        rec.Path,
			FileName:    rec.FileName,
			PageCount:   rec.PageCount,
			Metadata:    rec.Metadata,
			Status:      string(rec.Status),
			Diagnostic:  rec.Diagnostic,
			ProcessedAt: rec.ProcessedAt.UTC().Format(time.RFC3339),
		}
		for _, m := range rec.Matches {
			entries[i].Statements = append(entries[i].Statements, ExportStatement{
				Page:       m.Page,
				Paragraph:  m.Paragraph,
				Heuristic:  m.Trigger,
				Classifier: m.Source,
				Rationale:  m.Rationale,
			})
		}
	}

	return entries, nil
}
