// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads engine configuration from file, environment,
// and defaults, and initializes the global logger.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// Load reads configuration from cfgFile, or from
// ./positionality-engine.yaml or ~/.config/positionality-engine/config.yaml
// when cfgFile is empty. Environment variables prefixed with
// POSITIONALITY_ENGINE_ override file values.
func Load(cfgFile string) (*types.Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("positionality-engine")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "positionality-engine"))
		}
	}

	v.SetEnvPrefix("POSITIONALITY_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers a default for every key so environment
// overrides bind even when the key is absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("acquisition.pdftotext_path", "")

	v.SetDefault("metadata.remote_lookup", true)
	v.SetDefault("metadata.timeout", "10s")
	v.SetDefault("metadata.user_agent", "positionality-engine/0.1 (mailto:research@equitylab.org)")
	v.SetDefault("metadata.max_retries", 2)
	v.SetDefault("metadata.rate_per_second", 5)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.rate_per_second", 1)
	v.SetDefault("ai.max_passage_chars", 12000)

	v.SetDefault("runtime.workers", 0)

	v.SetDefault("report.format", "csv")
	v.SetDefault("report.output", "")
	v.SetDefault("report.metadata_dir", "")

	v.SetDefault("store.path", "positionality.db")
	v.SetDefault("store.max_results", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg types.LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	return nil
}
