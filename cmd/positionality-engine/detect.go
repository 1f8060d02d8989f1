package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/equitylab/positionality-engine/internal/detect"
	"github.com/equitylab/positionality-engine/internal/pdftext"
	"github.com/equitylab/positionality-engine/pkg/types"
)

var detectCmd = &cobra.Command{
	Use:   "detect [paths...]",
	Short: "List candidate paragraphs flagged by lexical cues",
	Long: `Detect runs text acquisition and cue-phrase detection only, printing
every candidate paragraph with its page, trigger, and offset. No AI
calls are made; use it to preview what extract would classify.`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().Bool("json", false, "output candidates as JSON")
	detectCmd.Flags().Bool("full", false, "print full paragraphs instead of excerpts")

	rootCmd.AddCommand(detectCmd)
}

// detectResult lists the candidates found in one document.
type detectResult struct {
	Path       string            `json:"path"`
	FileName   string            `json:"filename"`
	Candidates []types.Candidate `json:"candidates"`
	Error      string            `json:"error,omitempty"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files or directories")
	}

	paths, err := collectPDFs(args)
	if err != nil {
		return err
	}

	extractor := pdftext.New(engineCfg.Acquisition)
	detector := detect.New()

	var results []detectResult
	var failed int
	for _, path := range paths {
		res := detectResult{Path: path, FileName: filepath.Base(path)}

		doc, err := extractor.Extract(cmd.Context(), path)
		if err != nil {
			res.Error = pdftext.Diagnostic(err)
			failed++
		} else {
			res.Candidates = detector.Detect(doc)
		}
		results = append(results, res)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		full, _ := cmd.Flags().GetBool("full")
		printDetectResults(results, full)
	}

	if failed > 0 {
		return fmt.Errorf("%d document(s) failed text acquisition", failed)
	}
	return nil
}

func printDetectResults(results []detectResult, full bool) {
	total := 0
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(os.Stdout, "%s: error: %s\n", r.FileName, r.Error)
			continue
		}
		if len(r.Candidates) == 0 {
			fmt.Fprintf(os.Stdout, "%s: no candidates\n", r.FileName)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s: %d candidate(s)\n", r.FileName, len(r.Candidates))
		for _, c := range r.Candidates {
			text := c.Paragraph
			if !full {
				text = clip(strings.TrimSpace(text), 100)
			}
			fmt.Fprintf(os.Stdout, "  p.%-3d  %-24s  %s\n", c.Page, c.Trigger, text)
		}
		total += len(r.Candidates)
	}
	fmt.Fprintf(os.Stdout, "\n%d candidate(s) in %d document(s)\n", total, len(results))
}
