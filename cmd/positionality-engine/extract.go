package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/equitylab/positionality-engine/internal/pipeline"
	"github.com/equitylab/positionality-engine/internal/report"
	"github.com/equitylab/positionality-engine/internal/store"
	"github.com/equitylab/positionality-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Scan PDFs for positionality statements",
	Long: `Extract runs the full pipeline over the given PDF files and
directories: text acquisition, metadata resolution, candidate detection,
and classification. Directories are searched recursively for *.pdf files.

The report goes to stdout unless --output is set; progress goes to
stderr. Use --store to persist records to the results database for
later querying with "records".`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Int("workers", 0, "documents processed concurrently (0 = number of CPUs)")
	extractCmd.Flags().Bool("ai", false, "enable AI classification of candidates")
	extractCmd.Flags().String("provider", "", "AI provider: openai or anthropic")
	extractCmd.Flags().String("model", "", "AI model identifier (empty = provider default)")
	extractCmd.Flags().String("api-key", "", "AI API key (overrides config and .secrets/)")
	extractCmd.Flags().Bool("remote-lookup", true, "resolve missing metadata via the CrossRef API")
	extractCmd.Flags().String("format", "", "report format: csv, markdown, or json")
	extractCmd.Flags().StringP("output", "o", "", "report file (default: stdout)")
	extractCmd.Flags().String("metadata-dir", "", "write per-document metadata YAML files to this directory")
	extractCmd.Flags().Bool("store", false, "persist records to the results database")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files or directories")
	}

	paths, err := collectPDFs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files found under %s", strings.Join(args, ", "))
	}

	cfg := *engineCfg
	applyExtractFlags(cmd, &cfg)
	aiCredential(&cfg)

	eng, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	summary, runErr := eng.Run(cmd.Context(), paths, func(p pipeline.Progress) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", p.Done, p.Total, p.Record.FileName, p.Record.Status)
	})

	if err := writeOutputs(cmd, cfg, summary); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nprocessed: %d, found: %d, no match: %d, failed: %d (%.1fs)\n",
		summary.Total(), summary.Found, summary.NoMatch, summary.Failed,
		summary.Elapsed.Seconds())

	if runErr != nil {
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed processing", summary.Failed)
	}
	return nil
}

// writeOutputs renders the report and any requested side outputs for a
// completed (or partially completed) run.
func writeOutputs(cmd *cobra.Command, cfg types.Config, summary pipeline.RunSummary) error {
	if len(summary.Records) == 0 {
		return nil
	}

	var out io.Writer = os.Stdout
	if cfg.Report.Output != "" {
		f, err := os.Create(cfg.Report.Output)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := report.Write(out, cfg.Report.Format, summary.Records); err != nil {
		return err
	}
	if cfg.Report.Output != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", cfg.Report.Output)
	}

	if cfg.Report.MetadataDir != "" {
		if err := report.WriteMetadataSidecars(cfg.Report.MetadataDir, summary.Records); err != nil {
			return err
		}
	}

	if persist, _ := cmd.Flags().GetBool("store"); persist {
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveRun(cmd.Context(), summary.RunID, summary.Records); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d record(s) to %s (run %s)\n",
			len(summary.Records), cfg.Store.Path, summary.RunID)
	}

	return nil
}

func applyExtractFlags(cmd *cobra.Command, cfg *types.Config) {
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		cfg.Runtime.Workers = v
	}
	if cmd.Flags().Changed("ai") {
		cfg.AI.Enabled, _ = cmd.Flags().GetBool("ai")
	}
	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		cfg.AI.Provider = types.AIProvider(v)
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.AI.Model = v
	}
	if v, _ := cmd.Flags().GetString("api-key"); v != "" {
		cfg.AI.APIKey = v
	}
	if cmd.Flags().Changed("remote-lookup") {
		cfg.Metadata.RemoteLookup, _ = cmd.Flags().GetBool("remote-lookup")
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.Report.Format = types.ReportFormat(v)
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Report.Output = v
	}
	if v, _ := cmd.Flags().GetString("metadata-dir"); v != "" {
		cfg.Report.MetadataDir = v
	}
}

// collectPDFs expands the argument list into PDF paths. Files are taken
// as given, in argument order; directories are walked recursively for
// *.pdf entries in lexical order.
func collectPDFs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if strings.EqualFold(filepath.Ext(p), ".pdf") {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return paths, nil
}
