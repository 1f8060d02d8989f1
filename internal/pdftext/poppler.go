// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// runner abstracts command execution so tests can exercise the poppler
// backend without the pdftotext binary installed.
type runner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osRunner is the production runner backed by os/exec.
type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Poppler extracts text by shelling out to pdftotext with layout preserved.
// It is the high-fidelity primary backend: pdftotext keeps column layout and
// emits a form feed between pages.
type Poppler struct {
	bin string
	run runner
}

// NewPoppler creates the poppler backend. bin overrides the pdftotext
// location; empty means PATH lookup.
func NewPoppler(bin string) *Poppler {
	if bin == "" {
		bin = "pdftotext"
	}
	return &Poppler{bin: bin, run: osRunner{}}
}

// Name implements Backend.
func (p *Poppler) Name() string { return "poppler" }

// Available reports whether the pdftotext binary can be found.
func (p *Poppler) Available() bool {
	_, err := p.run.LookPath(p.bin)
	return err == nil
}

// ExtractPages runs pdftotext -layout and splits its output on form feeds.
func (p *Poppler) ExtractPages(ctx context.Context, path string) ([]string, error) {
	var stdout, stderr bytes.Buffer
	err := p.run.Run(ctx, p.bin, []string{"-layout", path, "-"}, &stdout, &stderr)
	if err != nil {
		return nil, classifyPopplerFailure(err, stderr.String())
	}

	// pdftotext terminates every page, including the last, with a form feed.
	pages := strings.Split(stdout.String(), "\f")
	if n := len(pages); n > 0 && pages[n-1] == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

// classifyPopplerFailure maps pdftotext stderr output onto the package
// sentinels. Stderr is only consulted when the command itself failed;
// pdftotext prints recoverable syntax warnings there on success too.
func classifyPopplerFailure(err error, stderr string) error {
	switch {
	case strings.Contains(stderr, "Incorrect password"):
		return fmt.Errorf("%w: pdftotext: incorrect password", ErrEncrypted)
	case strings.Contains(stderr, "Copying of text from this document is not allowed"):
		return fmt.Errorf("%w: pdftotext: copy permission denied", ErrEncrypted)
	case strings.Contains(stderr, "May not be a PDF file"),
		strings.Contains(stderr, "Couldn't read xref table"),
		strings.Contains(stderr, "Couldn't find trailer dictionary"):
		return fmt.Errorf("%w: pdftotext: %s", ErrCorrupted, firstLine(stderr))
	default:
		if line := firstLine(stderr); line != "" {
			return fmt.Errorf("pdftotext: %w (%s)", err, line)
		}
		return fmt.Errorf("pdftotext: %w", err)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
