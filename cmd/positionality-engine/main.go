// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the positionality-engine CLI.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/equitylab/positionality-engine/internal/config"
	"github.com/equitylab/positionality-engine/internal/secrets"
	"github.com/equitylab/positionality-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// engineCfg is the resolved configuration for the current invocation.
var engineCfg *types.Config

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the positionality-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "positionality-engine",
	Short: "Find positionality statements in scholarly PDF collections",
	Long: `positionality-engine scans scholarly PDF articles for positionality
statements: passages where the authors disclose how their identity,
background, or social position relates to the research.

The pipeline extracts page text, resolves bibliographic metadata, flags
candidate paragraphs with lexical cues, and optionally confirms them with
an AI classifier. Results go to a report (CSV, Markdown, or JSON) and,
on request, a searchable SQLite database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if lv, _ := cmd.Flags().GetString("log-level"); lv != "" {
			cfg.Log.Level = lv
		}
		if err := config.InitLogger(cfg.Log); err != nil {
			return err
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		engineCfg = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./positionality-engine.yaml or ~/.config/positionality-engine/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override log level: debug, info, warn, or error")
}

// aiCredential resolves the API key for the configured provider:
// config and environment first, then the .secrets/ directory.
func aiCredential(cfg *types.Config) {
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = secrets.ProviderKey(loadedSecrets, cfg.AI.Provider)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
