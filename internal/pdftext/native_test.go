// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNativeExtractsPerPageText(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "plain.pdf", fixtureOpts{
		pages: [][]string{
			{"Alpha page content."},
			{"Beta page content."},
			{"Gamma page content."},
		},
	})

	pages, err := Native{}.ExtractPages(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	for i, want := range []string{"Alpha", "Beta", "Gamma"} {
		if !strings.Contains(pages[i], want) {
			t.Errorf("page %d = %q, want it to contain %q", i+1, pages[i], want)
		}
	}
}

func TestNativeEncrypted(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "locked.pdf", fixtureOpts{
		userPass: "secret",
		pages:    [][]string{{"Hidden text."}},
	})

	_, err := Native{}.ExtractPages(context.Background(), path)
	if !errors.Is(err, ErrEncrypted) {
		t.Errorf("error = %v, want %v", err, ErrEncrypted)
	}
}

func TestNativeCorrupted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\nthis is not a real pdf body"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Native{}.ExtractPages(context.Background(), path)
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("error = %v, want %v", err, ErrCorrupted)
	}
}

func TestReadInfo(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "meta.pdf", fixtureOpts{
		title:  "Situated Knowledge in Field Studies",
		author: "Maria Alvarez",
		pages:  [][]string{{"Body."}},
	})

	info := ReadInfo(path)
	if info.Title != "Situated Knowledge in Field Studies" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Author != "Maria Alvarez" {
		t.Errorf("Author = %q", info.Author)
	}
	// gofpdf stamps CreationDate with the current clock.
	if info.Year == 0 {
		t.Error("Year = 0, want the creation year")
	}
}

func TestReadInfoMissingFile(t *testing.T) {
	info := ReadInfo(filepath.Join(t.TempDir(), "absent.pdf"))
	if !info.IsZero() {
		t.Errorf("info = %+v, want zero", info)
	}
}

func TestYearFromPDFDate(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"D:20200115120000Z", 2020},
		{"D:19991231", 1999},
		{"20240101000000", 2024},
		{"D:0042", 0},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := yearFromPDFDate(tt.in); got != tt.want {
			t.Errorf("yearFromPDFDate(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
