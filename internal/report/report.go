// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders extraction records as CSV, Markdown, or JSON,
// and writes resolved-metadata sidecar files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/equitylab/positionality-engine/internal/metadata"
	"github.com/equitylab/positionality-engine/pkg/types"
)

// csvHeader is the column layout of the CSV report. One row per document;
// statement columns describe the first matched statement.
var csvHeader = []string{
	"filename", "title", "authors", "year", "journal", "volume", "issue",
	"doi", "status", "found", "page", "statement", "trigger", "classifier",
	"rationale", "candidates", "diagnostic",
}

// Write renders records to w in the given format.
func Write(w io.Writer, format types.ReportFormat, records []types.ExtractionRecord) error {
	switch format {
	case types.FormatCSV, "":
		return WriteCSV(w, records)
	case types.FormatMarkdown:
		return WriteMarkdown(w, records)
	case types.FormatJSON:
		return WriteJSON(w, records)
	default:
		return fmt.Errorf("unsupported report format %q: use csv, markdown, or json", format)
	}
}

// WriteCSV renders records as CSV, one row per document.
func WriteCSV(w io.Writer, records []types.ExtractionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for i := range records {
		rec := &records[i]
		row := []string{
			rec.FileName,
			rec.Metadata.Title,
			strings.Join(rec.Metadata.Authors, "; "),
			zeroBlank(rec.Metadata.Year),
			rec.Metadata.Journal,
			rec.Metadata.Volume,
			rec.Metadata.Issue,
			metadata.DOIURL(rec.Metadata.DOI),
			string(rec.Status),
			yesNo(rec.Found()),
			"",
			rec.Statement(),
			"",
			"",
			"",
			strconv.Itoa(rec.CandidateCount),
			rec.Diagnostic,
		}
		if rec.Found() {
			m := rec.Matches[0]
			row[10] = strconv.Itoa(m.Page)
			row[12] = m.Trigger
			row[13] = m.Source
			row[14] = m.Rationale
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", rec.FileName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMarkdown renders records as a human-readable Markdown report.
func WriteMarkdown(w io.Writer, records []types.ExtractionRecord) error {
	var found, noMatch, failed int
	for i := range records {
		switch records[i].Status {
		case types.StatusOK:
			found++
		case types.StatusError:
			failed++
		default:
			noMatch++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Positionality Statement Report\n\n")
	fmt.Fprintf(&b, "Processed %d document(s): %d with statements, %d without, %d failed.\n\n",
		len(records), found, noMatch, failed)

	for i := range records {
		rec := &records[i]
		fmt.Fprintf(&b, "## %s\n\n", heading(rec))

		if rec.Metadata.Title != "" && rec.Metadata.Title != heading(rec) {
			fmt.Fprintf(&b, "- Title: %s\n", rec.Metadata.Title)
		}
		if len(rec.Metadata.Authors) > 0 {
			fmt.Fprintf(&b, "- Authors: %s\n", strings.Join(rec.Metadata.Authors, "; "))
		}
		if venue := formatVenue(rec.Metadata); venue != "" {
			fmt.Fprintf(&b, "- Published in: %s\n", venue)
		}
		if rec.Metadata.DOI != "" {
			fmt.Fprintf(&b, "- DOI: %s\n", metadata.DOIURL(rec.Metadata.DOI))
		}
		fmt.Fprintf(&b, "- Status: %s", rec.Status)
		if rec.Diagnostic != "" {
			fmt.Fprintf(&b, " (%s)", rec.Diagnostic)
		}
		fmt.Fprintf(&b, "\n")

		for _, m := range rec.Matches {
			fmt.Fprintf(&b, "\nStatement on page %d (%s, %s):\n\n", m.Page, m.Trigger, m.Source)
			fmt.Fprintf(&b, "> %s\n", m.Paragraph)
			if m.Rationale != "" {
				fmt.Fprintf(&b, "\nRationale: %s\n", m.Rationale)
			}
		}
		fmt.Fprintf(&b, "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders records as indented JSON.
func WriteJSON(w io.Writer, records []types.ExtractionRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// heading picks the section heading for a record: the resolved title,
// falling back to the file name.
func heading(rec *types.ExtractionRecord) string {
	if rec.Metadata.Title != "" {
		return rec.Metadata.Title
	}
	return rec.FileName
}

// formatVenue renders "Journal, Vol. 14, No. 2 (2021)" from whichever
// parts are present.
func formatVenue(m types.MetadataRecord) string {
	var parts []string
	if m.Journal != "" {
		parts = append(parts, m.Journal)
	}
	if m.Volume != "" {
		parts = append(parts, "Vol. "+m.Volume)
	}
	if m.Issue != "" {
		parts = append(parts, "No. "+m.Issue)
	}
	s := strings.Join(parts, ", ")
	if m.Year > 0 {
		if s == "" {
			return strconv.Itoa(m.Year)
		}
		s += fmt.Sprintf(" (%d)", m.Year)
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func zeroBlank(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
