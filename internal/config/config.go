package config

import "time"

// Config is the top-level application configuration.
// It is loaded from ~/.config/awsinv/config.yaml. Every field is optional;
// command-line flags take precedence over file values.
type Config struct {
	AWS       AWSConfig       `yaml:"aws"       json:"aws"`
	Inventory InventoryConfig `yaml:"inventory" json:"inventory"`
	Transport TransportConfig `yaml:"transport" json:"transport"`
}

// AWSConfig holds AWS-specific defaults used when flags are not provided.
type AWSConfig struct {
	// DefaultRegion is used when no --region flag is provided.
	DefaultRegion string `yaml:"default_region" json:"default_region"`

	// DefaultProfile is used when no --profile flag is provided.
	DefaultProfile string `yaml:"default_profile" json:"default_profile"`
}

// InventoryConfig holds defaults for the inventory command.
type InventoryConfig struct {
	// Format is "json" or "table".
	Format string `yaml:"format" json:"format"`

	// Output is the report file path. Empty writes to stdout.
	Output string `yaml:"output" json:"output"`

	// Concurrency caps in-flight per-user and per-bucket enrichment calls.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// RetryDelay is the pause before the single retry of a call that failed
	// with a network error, as a Go duration string (e.g. "1s").
	RetryDelay string `yaml:"retry_delay" json:"retry_delay"`
}

// TransportConfig bounds every AWS SDK call.
type TransportConfig struct {
	// ConnectTimeout caps TCP dial and TLS handshake time (e.g. "5s").
	ConnectTimeout string `yaml:"connect_timeout" json:"connect_timeout"`

	// RequestTimeout caps a single HTTP round trip (e.g. "30s").
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`

	// MaxAttempts is the SDK retryer's attempt budget per call.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// Loader is the interface for reading Config from disk.
// Default implementation reads from ~/.config/awsinv/config.yaml.
type Loader interface {
	// Load reads, parses, and validates the configuration file.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}

// Duration parses s as a Go duration. An empty s yields zero, which callers
// treat as "use the default".
func Duration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
