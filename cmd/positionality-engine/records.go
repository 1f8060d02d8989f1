// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/equitylab/positionality-engine/internal/store"
	"github.com/equitylab/positionality-engine/pkg/types"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Query the results database (list, search, export)",
	Long: `Records queries extraction results saved by "extract --store". Use
subcommands to list stored documents, search statements with full-text
queries, or export everything to YAML or JSON.`,
}

// --- list subcommand ---

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents, newest first",
	Long: `List shows stored extraction records with their status and statement
counts. Filter by status or run ID.`,
	RunE: runRecordsList,
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.List(cmd.Context(), recordsQueryOpts(cmd, nil))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No records found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-28s  %-8s  %-10s  %s\n",
		"Processed", "File", "Status", "Statements", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i := range records {
		r := &records[i]
		fmt.Fprintf(os.Stdout, "%-20s  %-28s  %-8s  %-10d  %s\n",
			r.ProcessedAt.Format("2006-01-02 15:04:05"),
			clip(r.FileName, 28), r.Status, len(r.Matches),
			clip(r.Metadata.Title, 40))
	}

	fmt.Fprintf(os.Stdout, "\n%d record(s)\n", len(records))
	return nil
}

// --- search subcommand ---

var recordsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored statements with full-text queries and filters",
	Long: `Search runs FTS5 full-text queries over stored statement paragraphs,
optionally filtered by the heuristic that flagged them or by run ID.
Results are ranked by relevance.`,
	RunE: runRecordsSearch,
}

func runRecordsSearch(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := recordsQueryOpts(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --heuristic, or --run")
	}

	results, err := st.SearchStatements(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []store.StatementResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-28s  %-5s  %-24s  %s\n",
		"Rank", "File", "Page", "Heuristic", "Statement")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%-4d  %-28s  %-5d  %-24s  %s\n",
			i+1, clip(r.FileName, 28), r.Page, r.Trigger,
			clip(r.Paragraph, 50))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var recordsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to YAML or JSON",
	Long: `Export writes all stored records (or a filtered subset) to a file.
The default location is export.yaml or export.json next to the database.`,
	RunE: runRecordsExport,
}

func runRecordsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := recordsQueryOpts(cmd, nil)

	switch format {
	case "yaml", "":
		if err := st.ExportYAML(cmd.Context(), output, opts); err != nil {
			return err
		}
	case "json":
		if err := st.ExportJSON(cmd.Context(), output, opts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	if output == "" {
		output = "next to the database"
	}
	fmt.Printf("Exported to %s\n", output)
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg := engineCfg.Store
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Path = db
	}
	if mr, _ := cmd.Flags().GetInt("max-results"); mr > 0 {
		cfg.MaxResults = mr
	}
	return store.NewStore(cfg)
}

func recordsQueryOpts(cmd *cobra.Command, args []string) store.QueryOptions {
	search, _ := cmd.Flags().GetString("query")
	if search == "" && len(args) > 0 {
		search = strings.Join(args, " ")
	}

	status, _ := cmd.Flags().GetString("status")
	heuristic, _ := cmd.Flags().GetString("heuristic")
	runID, _ := cmd.Flags().GetString("run")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Search:     search,
		Status:     types.ExtractionStatus(status),
		Heuristic:  heuristic,
		RunID:      runID,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	recordsCmd.PersistentFlags().String("db", "", "results database file (default: store.path from config)")
	recordsCmd.PersistentFlags().Int("max-results", 0, "default maximum number of query results")
	recordsCmd.PersistentFlags().String("run", "", "filter by run ID")

	// List flags.
	recordsListCmd.Flags().String("status", "", "filter by status: ok, no-match, or error")
	recordsListCmd.Flags().Int("limit", 0, "maximum records (0 = use default)")
	recordsListCmd.Flags().Bool("json", false, "output records as JSON")

	// Search flags.
	recordsSearchCmd.Flags().String("query", "", "full-text search query")
	recordsSearchCmd.Flags().String("heuristic", "", "filter by the cue that flagged the statement")
	recordsSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	recordsSearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	recordsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	recordsExportCmd.Flags().String("output", "", "export file path (default: next to the database)")
	recordsExportCmd.Flags().String("status", "", "filter by status for partial export")

	// Wire subcommands.
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsSearchCmd)
	recordsCmd.AddCommand(recordsExportCmd)

	rootCmd.AddCommand(recordsCmd)
}
