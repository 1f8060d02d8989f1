package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/equitylab/positionality-engine/internal/metadata"
	"github.com/equitylab/positionality-engine/internal/pdftext"
	"github.com/equitylab/positionality-engine/pkg/types"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata [paths...]",
	Short: "Resolve bibliographic metadata for PDFs",
	Long: `Metadata extracts page text and resolves title, authors, year, DOI,
and journal information through the resolver chain: embedded PDF info,
header and footer scan, DOI pattern search, and CrossRef lookup. No
statement detection runs.`,
	RunE: runMetadata,
}

func init() {
	metadataCmd.Flags().Bool("remote-lookup", true, "resolve missing metadata via the CrossRef API")
	metadataCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(metadataCmd)
}

// metadataResult pairs a document with its resolved metadata for output.
type metadataResult struct {
	Path     string               `json:"path"`
	FileName string               `json:"filename"`
	Metadata types.MetadataRecord `json:"metadata"`
	Error    string               `json:"error,omitempty"`
}

func runMetadata(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files or directories")
	}

	paths, err := collectPDFs(args)
	if err != nil {
		return err
	}

	cfg := *engineCfg
	if cmd.Flags().Changed("remote-lookup") {
		cfg.Metadata.RemoteLookup, _ = cmd.Flags().GetBool("remote-lookup")
	}

	extractor := pdftext.New(cfg.Acquisition)
	resolver := metadata.New(cfg.Metadata)

	var results []metadataResult
	var failed int
	for _, path := range paths {
		res := metadataResult{Path: path, FileName: filepath.Base(path)}

		doc, err := extractor.Extract(cmd.Context(), path)
		if err != nil {
			res.Error = pdftext.Diagnostic(err)
			failed++
		} else {
			res.Metadata = resolver.Resolve(cmd.Context(), doc)
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
		printMetadataTable(results)
	}

	if failed > 0 {
		return fmt.Errorf("%d document(s) failed text acquisition", failed)
	}
	return nil
}

func printMetadataTable(results []metadataResult) {
	fmt.Fprintf(os.Stdout, "%-28s  %-44s  %-4s  %-26s  %s\n",
		"File", "Title", "Year", "Journal", "DOI")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(os.Stdout, "%-28s  error: %s\n", clip(r.FileName, 28), r.Error)
			continue
		}
		year := ""
		if r.Metadata.Year > 0 {
			year = fmt.Sprintf("%d", r.Metadata.Year)
		}
		fmt.Fprintf(os.Stdout, "%-28s  %-44s  %-4s  %-26s  %s\n",
			clip(r.FileName, 28), clip(r.Metadata.Title, 44), year,
			clip(r.Metadata.Journal, 26), r.Metadata.DOI)
	}
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
