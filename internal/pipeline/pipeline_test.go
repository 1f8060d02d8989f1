// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// writePDF generates a small real PDF, one page per entry.
func writePDF(t *testing.T, dir, name string, pages ...[]string) string {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 11)
	for _, lines := range pages {
		doc.AddPage()
		for _, line := range lines {
			doc.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
	}
	path := filepath.Join(dir, name)
	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func statementPDF(t *testing.T, dir, name string) string {
	return writePDF(t, dir, name,
		[]string{"Introduction", "", "This study examines community health outcomes."},
		[]string{
			"Methods",
			"",
			"As a queer Latina researcher, I approach this study",
			"from a commitment to community accountability.",
		},
		[]string{"Results", "", "Participants reported a range of experiences."},
	)
}

func plainPDF(t *testing.T, dir, name string) string {
	return writePDF(t, dir, name,
		[]string{"The survey instrument contained twelve items", "scored on a five-point scale by raters."},
	)
}

func encryptedPDF(t *testing.T, dir, name string) string {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetProtection(gofpdf.CnProtectPrint, "secret", "owner-secret")
	doc.SetFont("Helvetica", "", 11)
	doc.AddPage()
	doc.CellFormat(0, 6, "Locked away.", "", 1, "L", false, 0, "")
	path := filepath.Join(dir, name)
	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func testConfig() types.Config {
	return types.Config{
		Metadata: types.MetadataConfig{RemoteLookup: false},
		Runtime:  types.RuntimeConfig{Workers: 2},
	}
}

type stubBackend struct {
	response string
	err      error
	mu       sync.Mutex
	calls    int
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Complete(context.Context, string, string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.response, s.err
}

func TestProcessFindsStatement(t *testing.T) {
	dir := t.TempDir()
	path := statementPDF(t, dir, "statement.pdf")

	rec := NewWithBackend(testConfig(), nil).Process(context.Background(), path)

	if rec.Status != types.StatusOK {
		t.Fatalf("Status = %q, want ok (diagnostic %q)", rec.Status, rec.Diagnostic)
	}
	if rec.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", rec.PageCount)
	}
	if len(rec.Matches) == 0 {
		t.Fatal("no matches")
	}
	m := rec.Matches[0]
	if m.Page != 2 {
		t.Errorf("match Page = %d, want 2", m.Page)
	}
	if !strings.Contains(m.Paragraph, "As a queer Latina researcher") {
		t.Errorf("match Paragraph = %q", m.Paragraph)
	}
	if m.Source != types.ClassifierRegex {
		t.Errorf("match Source = %q, want regex in lexical mode", m.Source)
	}
	if !rec.Found() {
		t.Error("Found() = false")
	}
	if !strings.Contains(rec.Statement(), "As a queer Latina researcher") {
		t.Errorf("Statement() = %q", rec.Statement())
	}
}

func TestProcessNoMatch(t *testing.T) {
	dir := t.TempDir()
	path := plainPDF(t, dir, "plain.pdf")

	rec := NewWithBackend(testConfig(), nil).Process(context.Background(), path)

	if rec.Status != types.StatusNoMatch {
		t.Fatalf("Status = %q, want no-match", rec.Status)
	}
	if len(rec.Matches) != 0 {
		t.Errorf("Matches = %+v, want none", rec.Matches)
	}
	if rec.Found() {
		t.Error("Found() = true")
	}
}

func TestProcessMissingFile(t *testing.T) {
	rec := NewWithBackend(testConfig(), nil).Process(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))

	if rec.Status != types.StatusError {
		t.Fatalf("Status = %q, want error", rec.Status)
	}
	if rec.Diagnostic != "not-found" {
		t.Errorf("Diagnostic = %q, want not-found", rec.Diagnostic)
	}
}

func TestProcessEncryptedPDF(t *testing.T) {
	dir := t.TempDir()
	path := encryptedPDF(t, dir, "locked.pdf")

	rec := NewWithBackend(testConfig(), nil).Process(context.Background(), path)

	if rec.Status != types.StatusError {
		t.Fatalf("Status = %q, want error", rec.Status)
	}
	if rec.Diagnostic != "encrypted" {
		t.Errorf("Diagnostic = %q, want encrypted", rec.Diagnostic)
	}
	if len(rec.Matches) != 0 || rec.CandidateCount != 0 {
		t.Errorf("Matches = %d, CandidateCount = %d, want none", len(rec.Matches), rec.CandidateCount)
	}
}

func TestProcessDeterministicWithoutAI(t *testing.T) {
	dir := t.TempDir()
	path := statementPDF(t, dir, "statement.pdf")

	eng := NewWithBackend(testConfig(), nil)
	first := eng.Process(context.Background(), path)
	second := eng.Process(context.Background(), path)

	if !reflect.DeepEqual(first.Metadata, second.Metadata) {
		t.Errorf("metadata differs between runs:\n%+v\n%+v", first.Metadata, second.Metadata)
	}
	if !reflect.DeepEqual(first.Matches, second.Matches) {
		t.Errorf("matches differ between runs:\n%+v\n%+v", first.Matches, second.Matches)
	}
	if first.Status != second.Status || first.CandidateCount != second.CandidateCount {
		t.Error("status or candidate count differs between runs")
	}
}

func TestProcessAIAccepts(t *testing.T) {
	dir := t.TempDir()
	path := statementPDF(t, dir, "statement.pdf")

	cfg := testConfig()
	cfg.AI = types.AIConfig{Enabled: true, Provider: types.ProviderOpenAI}
	backend := &stubBackend{response: "Yes\nThe authors describe their own position."}

	rec := NewWithBackend(cfg, backend).Process(context.Background(), path)

	if rec.Status != types.StatusOK {
		t.Fatalf("Status = %q, want ok", rec.Status)
	}
	if rec.Matches[0].Source != types.ClassifierAI {
		t.Errorf("Source = %q, want ai", rec.Matches[0].Source)
	}
	if rec.Matches[0].Rationale != "The authors describe their own position." {
		t.Errorf("Rationale = %q", rec.Matches[0].Rationale)
	}
}

func TestProcessAIRejects(t *testing.T) {
	dir := t.TempDir()
	path := statementPDF(t, dir, "statement.pdf")

	cfg := testConfig()
	cfg.AI = types.AIConfig{Enabled: true, Provider: types.ProviderOpenAI}
	backend := &stubBackend{response: "No\nThe passage discusses participants, not the authors."}

	rec := NewWithBackend(cfg, backend).Process(context.Background(), path)

	if rec.Status != types.StatusNoMatch {
		t.Fatalf("Status = %q, want no-match when AI rejects", rec.Status)
	}
	if rec.CandidateCount == 0 {
		t.Error("CandidateCount = 0, rejected candidates should still count")
	}
}

func TestProcessAIFailureFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := statementPDF(t, dir, "statement.pdf")

	cfg := testConfig()
	cfg.AI = types.AIConfig{Enabled: true, Provider: types.ProviderOpenAI}
	backend := &stubBackend{err: errors.New("api unreachable")}

	rec := NewWithBackend(cfg, backend).Process(context.Background(), path)

	if rec.Status != types.StatusOK {
		t.Fatalf("Status = %q, want ok via lexical fallback", rec.Status)
	}
	m := rec.Matches[0]
	if m.Source != types.ClassifierRegex {
		t.Errorf("Source = %q, want regex", m.Source)
	}
	if !strings.Contains(m.FallbackReason, "api unreachable") {
		t.Errorf("FallbackReason = %q", m.FallbackReason)
	}
}

func TestNewRequiresCredential(t *testing.T) {
	cfg := testConfig()
	cfg.AI = types.AIConfig{Enabled: true, Provider: types.ProviderOpenAI}

	_, err := New(cfg)
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("error = %v, want ErrNoCredential", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.AI = types.AIConfig{Enabled: true, Provider: "palm", APIKey: "k"}

	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewDisabledAIIgnoresCredential(t *testing.T) {
	cfg := testConfig()
	cfg.AI = types.AIConfig{Enabled: false}

	if _, err := New(cfg); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		statementPDF(t, dir, "one.pdf"),
		plainPDF(t, dir, "two.pdf"),
		statementPDF(t, dir, "three.pdf"),
		filepath.Join(dir, "absent.pdf"),
	}

	var progress []Progress
	summary, err := NewWithBackend(testConfig(), nil).Run(context.Background(), paths, func(p Progress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.RunID == "" {
		t.Error("RunID empty")
	}
	if summary.Found != 2 || summary.NoMatch != 1 || summary.Failed != 1 {
		t.Errorf("summary = found %d, no-match %d, failed %d", summary.Found, summary.NoMatch, summary.Failed)
	}
	if summary.Total() != 4 {
		t.Errorf("Total() = %d, want 4", summary.Total())
	}
	if !summary.HasFailures() {
		t.Error("HasFailures() = false")
	}
	if len(summary.Records) != 4 {
		t.Fatalf("got %d records, want 4", len(summary.Records))
	}
	// Records keep input order.
	for i, rec := range summary.Records {
		if rec.Path != paths[i] {
			t.Errorf("record %d path = %q, want %q", i, rec.Path, paths[i])
		}
	}
	if len(progress) != 4 {
		t.Errorf("progress called %d times, want 4", len(progress))
	}
	for _, p := range progress {
		if p.Total != 4 {
			t.Errorf("progress Total = %d, want 4", p.Total)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	paths := []string{plainPDF(t, dir, "one.pdf"), plainPDF(t, dir, "two.pdf")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWithBackend(testConfig(), nil).Run(ctx, paths, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestAggregateStatuses(t *testing.T) {
	doc := &types.Document{Path: "x.pdf", PageCount: 2}
	meta := types.MetadataRecord{Title: "T"}
	accepted := types.Match{
		Candidate:      types.Candidate{Page: 1, Paragraph: "p", Trigger: "standpoint-term"},
		Classification: types.Classification{Match: true, Source: types.ClassifierRegex},
	}
	rejected := types.Match{
		Candidate:      types.Candidate{Page: 2, Paragraph: "q", Trigger: "identity-term"},
		Classification: types.Classification{Match: false, Source: types.ClassifierAI},
	}

	rec := Aggregate("/tmp/x.pdf", doc, meta, []types.Match{accepted, rejected})
	if rec.Status != types.StatusOK {
		t.Errorf("Status = %q, want ok", rec.Status)
	}
	if rec.CandidateCount != 2 || len(rec.Matches) != 1 {
		t.Errorf("CandidateCount = %d, Matches = %d", rec.CandidateCount, len(rec.Matches))
	}
	if rec.FileName != "x.pdf" {
		t.Errorf("FileName = %q", rec.FileName)
	}

	rec = Aggregate("/tmp/x.pdf", doc, meta, []types.Match{rejected})
	if rec.Status != types.StatusNoMatch {
		t.Errorf("Status = %q, want no-match", rec.Status)
	}

	rec = Aggregate("/tmp/x.pdf", doc, meta, nil)
	if rec.Status != types.StatusNoMatch {
		t.Errorf("Status = %q, want no-match for zero candidates", rec.Status)
	}
	if rec.ProcessedAt.IsZero() {
		t.Error("ProcessedAt not stamped")
	}
}
