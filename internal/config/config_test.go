package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// chdir changes into dir for the duration of the test, restoring the
// original working directory on cleanup. It stands in for testing.T.Chdir,
// which needs Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		t.Setenv("PWD", abs)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Metadata.RemoteLookup {
		t.Error("Metadata.RemoteLookup = false, want true by default")
	}
	if cfg.Metadata.Timeout != 10*time.Second {
		t.Errorf("Metadata.Timeout = %v, want 10s", cfg.Metadata.Timeout)
	}
	if cfg.Metadata.MaxRetries != 2 {
		t.Errorf("Metadata.MaxRetries = %d, want 2", cfg.Metadata.MaxRetries)
	}
	if cfg.AI.Enabled {
		t.Error("AI.Enabled = true, want false by default")
	}
	if cfg.AI.Provider != types.ProviderOpenAI {
		t.Errorf("AI.Provider = %q, want openai", cfg.AI.Provider)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Errorf("AI.Timeout = %v, want 30s", cfg.AI.Timeout)
	}
	if cfg.AI.MaxPassageChars != 12000 {
		t.Errorf("AI.MaxPassageChars = %d, want 12000", cfg.AI.MaxPassageChars)
	}
	if cfg.Report.Format != types.FormatCSV {
		t.Errorf("Report.Format = %q, want csv", cfg.Report.Format)
	}
	if cfg.Store.Path != "positionality.db" {
		t.Errorf("Store.Path = %q, want positionality.db", cfg.Store.Path)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Log = %+v, want info/console", cfg.Log)
	}
}

func TestLoadFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	content := `
metadata:
  remote_lookup: false
  user_agent: "test-agent/1.0"
ai:
  enabled: true
  provider: anthropic
  model: claude-sonnet-4-5
runtime:
  workers: 4
`
	if err := os.WriteFile(filepath.Join(dir, "positionality-engine.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Metadata.RemoteLookup {
		t.Error("Metadata.RemoteLookup = true, want false from file")
	}
	if cfg.Metadata.UserAgent != "test-agent/1.0" {
		t.Errorf("Metadata.UserAgent = %q", cfg.Metadata.UserAgent)
	}
	if !cfg.AI.Enabled {
		t.Error("AI.Enabled = false, want true from file")
	}
	if cfg.AI.Provider != types.ProviderAnthropic {
		t.Errorf("AI.Provider = %q, want anthropic", cfg.AI.Provider)
	}
	if cfg.AI.Model != "claude-sonnet-4-5" {
		t.Errorf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.Runtime.Workers != 4 {
		t.Errorf("Runtime.Workers = %d, want 4", cfg.Runtime.Workers)
	}

	// Keys absent from the file keep their defaults.
	if cfg.Store.Path != "positionality.db" {
		t.Errorf("Store.Path = %q, want default", cfg.Store.Path)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("store:\n  path: /var/lib/pe/results.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Path != "/var/lib/pe/results.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("POSITIONALITY_ENGINE_AI_PROVIDER", "anthropic")
	t.Setenv("POSITIONALITY_ENGINE_AI_API_KEY", "sk-test-123")
	t.Setenv("POSITIONALITY_ENGINE_METADATA_REMOTE_LOOKUP", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.AI.Provider != types.ProviderAnthropic {
		t.Errorf("AI.Provider = %q, want anthropic from env", cfg.AI.Provider)
	}
	if cfg.AI.APIKey != "sk-test-123" {
		t.Error("AI.APIKey not taken from environment")
	}
	if cfg.Metadata.RemoteLookup {
		t.Error("Metadata.RemoteLookup = true, want false from env")
	}
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.LogConfig
		wantErr bool
	}{
		{"console info", types.LogConfig{Level: "info", Format: "console"}, false},
		{"json debug", types.LogConfig{Level: "debug", Format: "json"}, false},
		{"bad level", types.LogConfig{Level: "loud", Format: "console"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.cfg)
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("InitLogger: %v", err)
			}
		})
	}
}
