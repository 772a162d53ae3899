package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds one request, including reading the response.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pif-dft/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// QualityConfig holds settings for the optional quality-assessment service.
// The service is shared and rate-sensitive: bulk callers space their
// requests by Delay.
type QualityConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the endpoint that receives the serialized record.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Enabled turns annotation on without passing --quality.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Delay is the pause between consecutive annotation requests in batch runs (default 5s).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// OutputConfig controls how records are written.
type OutputConfig struct {
	// Format is json or yaml.
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Dir is the directory for batch output, one file per calculation.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// StoreConfig holds settings for the record index.
type StoreConfig struct {
	// Dir is the directory holding records.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// Config groups all settings read from pif-dft.yaml.
type Config struct {
	Quality QualityConfig `json:"quality" yaml:"quality" mapstructure:"quality"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
}
