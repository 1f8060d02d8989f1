package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "positionality-engine/0.1 (mailto:maintainers@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AcquisitionConfig holds settings for PDF text acquisition.
type AcquisitionConfig struct {
	// PdftotextPath overrides the location of the pdftotext binary.
	// Empty means look it up on PATH.
	PdftotextPath string `json:"pdftotext_path,omitempty" yaml:"pdftotext_path,omitempty" mapstructure:"pdftotext_path"`
}

// MetadataConfig holds settings for the metadata resolver chain.
type MetadataConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// RemoteLookup enables the CrossRef step of the resolver chain.
	// When false no network request is ever constructed.
	RemoteLookup bool `json:"remote_lookup" yaml:"remote_lookup" mapstructure:"remote_lookup"`

	// MaxRetries is the number of retry attempts for rate-limited
	// registry lookups (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RatePerSecond caps outbound registry requests across all workers.
	// Zero disables the client-side cap.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// AIProvider names a completion backend implementation.
type AIProvider string

const (
	ProviderOpenAI    AIProvider = "openai"
	ProviderAnthropic AIProvider = "anthropic"
)

// AIConfig holds settings for the AI-augmented classifier.
type AIConfig struct {
	// Enabled turns on AI classification. When false the classifier runs
	// in regex-only mode and needs no credential.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Provider selects the completion backend: openai or anthropic.
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier. Empty selects the provider default.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the provider. It is treated as an
	// opaque secret and never logged.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds each completion call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// RatePerSecond caps completion requests across all workers.
	// Zero disables the client-side cap.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`

	// MaxPassageChars caps the candidate text included in a prompt
	// (default 12000).
	MaxPassageChars int `json:"max_passage_chars" yaml:"max_passage_chars" mapstructure:"max_passage_chars"`
}

// RuntimeConfig holds execution settings for batch runs.
type RuntimeConfig struct {
	// Workers is the number of documents processed concurrently.
	// Zero or negative selects runtime.NumCPU().
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// ReportFormat selects the report serialization.
type ReportFormat string

const (
	FormatCSV      ReportFormat = "csv"
	FormatMarkdown ReportFormat = "markdown"
	FormatJSON     ReportFormat = "json"
)

// ReportConfig holds settings for report output.
type ReportConfig struct {
	// Format selects csv, markdown, or json.
	Format ReportFormat `json:"format" yaml:"format" mapstructure:"format"`

	// Output is the report file path. Empty writes to stdout.
	Output string `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`

	// MetadataDir, when set, receives one resolved-metadata YAML sidecar
	// per processed document.
	MetadataDir string `json:"metadata_dir,omitempty" yaml:"metadata_dir,omitempty" mapstructure:"metadata_dir"`
}

// StoreConfig holds settings for the results database.
type StoreConfig struct {
	// Path is the SQLite database file (default "positionality.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all stage configurations for the pipeline.
type Config struct {
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Metadata    MetadataConfig    `json:"metadata" yaml:"metadata" mapstructure:"metadata"`
	AI          AIConfig          `json:"ai" yaml:"ai" mapstructure:"ai"`
	Runtime     RuntimeConfig     `json:"runtime" yaml:"runtime" mapstructure:"runtime"`
	Report      ReportConfig      `json:"report" yaml:"report" mapstructure:"report"`
	Store       StoreConfig       `json:"store" yaml:"store" mapstructure:"store"`
	Log         LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
}
