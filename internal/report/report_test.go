package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/equitylab/positionality-engine/pkg/types"
)

func sampleRecords() []types.ExtractionRecord {
	return []types.ExtractionRecord{
		{
			Path:      "/papers/alvarez2021.pdf",
			FileName:  "alvarez2021.pdf",
			PageCount: 3,
			Metadata: types.MetadataRecord{
				Title:   "Community Voices in Participatory Health Research",
				Authors: []string{"Maria Alvarez", "Jun Chen"},
				Year:    2021,
				DOI:     "10.1234/phr.2021.017",
				Journal: "Journal of Participatory Research",
				Volume:  "14",
				Issue:   "2",
			},
			Matches: []types.Match{{
				Candidate: types.Candidate{
					Page:      2,
					Paragraph: "As a queer Latina researcher, I approach this study from a community-based standpoint.",
					Trigger:   "researcher-self",
					Offset:    140,
				},
				Classification: types.Classification{
					Match:     true,
					Source:    types.ClassifierAI,
					Rationale: "The author discloses their own identity and stance.",
				},
			}},
			CandidateCount: 2,
			Status:         types.StatusOK,
			ProcessedAt:    time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		},
		{
			Path:        "/papers/chen2019.pdf",
			FileName:    "chen2019.pdf",
			PageCount:   8,
			Status:      types.StatusNoMatch,
			ProcessedAt: time.Date(2026, 3, 14, 10, 31, 0, 0, time.UTC),
		},
		{
			Path:        "/papers/locked.pdf",
			FileName:    "locked.pdf",
			Status:      types.StatusError,
			Diagnostic:  "encrypted",
			ProcessedAt: time.Date(2026, 3, 14, 10, 32, 0, 0, time.UTC),
		},
	}
}

// --- CSV ---

func TestWriteCSV(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parsing CSV output: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}

	header := rows[0]
	if header[0] != "filename" || header[9] != "found" {
		t.Errorf("header = %v", header)
	}

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %q", name)
		return -1
	}

	found := rows[1]
	if found[col("filename")] != "alvarez2021.pdf" {
		t.Errorf("filename = %q", found[col("filename")])
	}
	if found[col("found")] != "yes" {
		t.Errorf("found = %q, want yes", found[col("found")])
	}
	if found[col("page")] != "2" {
		t.Errorf("page = %q, want 2", found[col("page")])
	}
	if !strings.Contains(found[col("statement")], "As a queer Latina researcher") {
		t.Errorf("statement = %q", found[col("statement")])
	}
	if found[col("doi")] != "https://doi.org/10.1234/phr.2021.017" {
		t.Errorf("doi = %q, want resolver URL", found[col("doi")])
	}
	if found[col("authors")] != "Maria Alvarez; Jun Chen" {
		t.Errorf("authors = %q", found[col("authors")])
	}
	if found[col("classifier")] != "ai" {
		t.Errorf("classifier = %q", found[col("classifier")])
	}

	noMatch := rows[2]
	if noMatch[col("found")] != "no" {
		t.Errorf("no-match found = %q, want no", noMatch[col("found")])
	}
	if noMatch[col("statement")] != "" {
		t.Errorf("no-match statement = %q, want empty", noMatch[col("statement")])
	}
	if noMatch[col("year")] != "" {
		t.Errorf("no-match year = %q, want blank for zero", noMatch[col("year")])
	}

	failed := rows[3]
	if failed[col("status")] != "error" || failed[col("diagnostic")] != "encrypted" {
		t.Errorf("error row status=%q diagnostic=%q", failed[col("status")], failed[col("diagnostic")])
	}
}

// --- Markdown ---

func TestWriteMarkdown(t *testing.T) {
	var buf strings.Builder
	if err := WriteMarkdown(&buf, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	wants := []string{
		"# Positionality Statement Report",
		"Processed 3 document(s): 1 with statements, 1 without, 1 failed.",
		"## Community Voices in Participatory Health Research",
		"- Authors: Maria Alvarez; Jun Chen",
		"- Published in: Journal of Participatory Research, Vol. 14, No. 2 (2021)",
		"- DOI: https://doi.org/10.1234/phr.2021.017",
		"Statement on page 2 (researcher-self, ai):",
		"> As a queer Latina researcher",
		"Rationale: The author discloses their own identity and stance.",
		"## chen2019.pdf",
		"- Status: error (encrypted)",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestFormatVenue(t *testing.T) {
	tests := []struct {
		name string
		meta types.MetadataRecord
		want string
	}{
		{"full", types.MetadataRecord{Journal: "J. Research", Volume: "14", Issue: "2", Year: 2021}, "J. Research, Vol. 14, No. 2 (2021)"},
		{"journal only", types.MetadataRecord{Journal: "J. Research"}, "J. Research"},
		{"year only", types.MetadataRecord{Year: 2021}, "2021"},
		{"no venue", types.MetadataRecord{}, ""},
		{"no issue", types.MetadataRecord{Journal: "J. Research", Volume: "14"}, "J. Research, Vol. 14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatVenue(tt.meta); got != tt.want {
				t.Errorf("formatVenue = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- JSON ---

func TestWriteJSON(t *testing.T) {
	var buf strings.Builder
	if err := WriteJSON(&buf, sampleRecords()); err != nil {
		t.Fatal(err)
	}

	var records []types.ExtractionRecord
	if err := json.Unmarshal([]byte(buf.String()), &records); err != nil {
		t.Fatalf("parsing JSON output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].Metadata.Title != "Community Voices in Participatory Health Research" {
		t.Errorf("Title = %q", records[0].Metadata.Title)
	}
	if len(records[0].Matches) != 1 || records[0].Matches[0].Page != 2 {
		t.Errorf("Matches = %+v", records[0].Matches)
	}
}

// --- format dispatch ---

func TestWriteDispatch(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, types.FormatMarkdown, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "# Positionality Statement Report") {
		t.Error("markdown dispatch produced wrong output")
	}

	if err := Write(&buf, "xml", nil); err == nil {
		t.Error("expected error for unsupported format")
	}
}

// --- sidecars ---

func TestWriteMetadataSidecars(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "metadata")
	if err := WriteMetadataSidecars(dir, sampleRecords()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "alvarez2021.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var sc sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		t.Fatalf("parsing sidecar: %v", err)
	}
	if sc.FileName != "alvarez2021.pdf" {
		t.Errorf("FileName = %q", sc.FileName)
	}
	if sc.Metadata.DOI != "10.1234/phr.2021.017" {
		t.Errorf("DOI = %q", sc.Metadata.DOI)
	}

	// No-match documents still get a sidecar; failed ones do not.
	if _, err := os.Stat(filepath.Join(dir, "chen2019.yaml")); err != nil {
		t.Errorf("expected sidecar for no-match document: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "locked.yaml")); !os.IsNotExist(err) {
		t.Error("unexpected sidecar for failed document")
	}
}
