package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Config prints the fully resolved configuration (defaults, config file,
environment, secrets) as YAML. The AI API key is redacted.`,
	RunE: runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented default config file",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := *engineCfg
	aiCredential(&cfg)
	if cfg.AI.APIKey != "" {
		cfg.AI.APIKey = "[redacted]"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// defaultConfigYAML is the starter config written by "config init". Values
// mirror the built-in defaults.
const defaultConfigYAML = `# positionality-engine configuration.
# Every key can also be set through the environment with the
# POSITIONALITY_ENGINE_ prefix, e.g. POSITIONALITY_ENGINE_AI_PROVIDER.

acquisition:
  # Location of the pdftotext binary. Empty means look it up on PATH;
  # without it the pure-Go parser is used on its own.
  pdftotext_path: ""

metadata:
  # Resolve missing fields through the CrossRef API when a DOI is found.
  remote_lookup: true
  timeout: 10s
  # CrossRef asks polite clients to identify themselves with a mailto.
  user_agent: "positionality-engine/0.1 (mailto:research@equitylab.org)"
  max_retries: 2
  rate_per_second: 5

ai:
  # AI classification of candidate passages. Needs an API key: set it
  # here, in the environment, or in .secrets/<provider>-api-key.
  enabled: false
  # openai or anthropic.
  provider: openai
  # Empty selects the provider default model.
  model: ""
  api_key: ""
  timeout: 30s
  rate_per_second: 1
  max_passage_chars: 12000

runtime:
  # Documents processed concurrently. 0 means one worker per CPU.
  workers: 0

report:
  # csv, markdown, or json.
  format: csv
  # Report file. Empty writes to stdout.
  output: ""
  # When set, one resolved-metadata YAML file per document is written here.
  metadata_dir: ""

store:
  path: positionality.db
  max_results: 20

log:
  # debug, info, warn, or error.
  level: info
  # console or json.
  format: console
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "positionality-engine.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}
