// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// fixtureOpts controls the generated PDF fixtures. Fixtures are rendered
// with gofpdf at test time so no binary files live in the repository.
type fixtureOpts struct {
	title    string
	author   string
	userPass string // non-empty produces a password-protected file
	pages    [][]string
}

// writeFixture renders a PDF into dir and returns its path. Each page is a
// slice of lines; lines are kept short enough that the layout engine does
// not wrap them, so extracted text preserves the phrases tests search for.
func writeFixture(t *testing.T, dir, name string, opts fixtureOpts) string {
	t.Helper()

	doc := gofpdf.New("P", "mm", "A4", "")
	if opts.title != "" {
		doc.SetTitle(opts.title, true)
	}
	if opts.author != "" {
		doc.SetAuthor(opts.author, true)
	}
	if opts.userPass != "" {
		doc.SetProtection(gofpdf.CnProtectPrint, opts.userPass, "owner-"+opts.userPass)
	}
	doc.SetFont("Helvetica", "", 11)
	for _, page := range opts.pages {
		doc.AddPage()
		for _, line := range page {
			doc.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
	}

	path := filepath.Join(dir, name)
	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}
