// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"testing"
)

// fakeRunner scripts pdftotext behavior without the binary.
type fakeRunner struct {
	lookPathErr error
	stdout      string
	stderr      string
	runErr      error
}

func (f *fakeRunner) LookPath(string) (string, error) {
	if f.lookPathErr != nil {
		return "", f.lookPathErr
	}
	return "/usr/bin/pdftotext", nil
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ []string, stdout, stderr io.Writer) error {
	io.WriteString(stdout, f.stdout)
	io.WriteString(stderr, f.stderr)
	return f.runErr
}

func TestPopplerSplitsPagesOnFormFeed(t *testing.T) {
	p := &Poppler{bin: "pdftotext", run: &fakeRunner{
		stdout: "page one text\f page two text\f",
	}}

	pages, err := p.ExtractPages(context.Background(), "paper.pdf")
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if !strings.Contains(pages[1], "page two") {
		t.Errorf("page 2 = %q, want it to contain %q", pages[1], "page two")
	}
}

func TestPopplerFailureClassification(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{
			name:   "incorrect password",
			stderr: "Command Line Error: Incorrect password\n",
			want:   ErrEncrypted,
		},
		{
			name:   "copy protection",
			stderr: "Copying of text from this document is not allowed.\n",
			want:   ErrEncrypted,
		},
		{
			name:   "not a pdf",
			stderr: "Syntax Warning: May not be a PDF file (continuing anyway)\nSyntax Error: Couldn't find trailer dictionary\n",
			want:   ErrCorrupted,
		},
		{
			name:   "broken xref",
			stderr: "Syntax Error: Couldn't read xref table\n",
			want:   ErrCorrupted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Poppler{bin: "pdftotext", run: &fakeRunner{
				stderr: tt.stderr,
				runErr: errors.New("exit status 1"),
			}}

			_, err := p.ExtractPages(context.Background(), "paper.pdf")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPopplerGenericFailureKeepsStderrDetail(t *testing.T) {
	p := &Poppler{bin: "pdftotext", run: &fakeRunner{
		stderr: "I/O Error: something odd\n",
		runErr: errors.New("exit status 1"),
	}}

	_, err := p.ExtractPages(context.Background(), "paper.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrEncrypted) || errors.Is(err, ErrCorrupted) {
		t.Fatalf("generic failure misclassified: %v", err)
	}
	if !strings.Contains(err.Error(), "something odd") {
		t.Errorf("error %q does not carry stderr detail", err)
	}
}

func TestPopplerUnavailable(t *testing.T) {
	p := &Poppler{bin: "pdftotext", run: &fakeRunner{lookPathErr: fmt.Errorf("not found")}}
	if p.Available() {
		t.Error("Available() = true with missing binary")
	}
}

// TestPopplerRealBinary exercises the production runner against a generated
// fixture when pdftotext is installed.
func TestPopplerRealBinary(t *testing.T) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		t.Skip("pdftotext not installed")
	}

	dir := t.TempDir()
	path := writeFixture(t, dir, "real.pdf", fixtureOpts{
		pages: [][]string{
			{"First page body text."},
			{"Second page body text."},
		},
	})

	p := NewPoppler("")
	pages, err := p.ExtractPages(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if !strings.Contains(pages[0], "First page") {
		t.Errorf("page 1 = %q, want it to contain %q", pages[0], "First page")
	}
}
