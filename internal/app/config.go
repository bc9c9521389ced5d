package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/phishcatcher/internal/assessor"
	"github.com/raysh454/phishcatcher/internal/logging"
)

// Config is the whole runtime configuration. Zero values of the nested
// structs are filled from DefaultConfig by LoadConfig.
type Config struct {
	Logging  logging.Config  `yaml:"logging"`
	Assessor assessor.Config `yaml:"assessor"`
	Model    ModelConfig     `yaml:"model"`
	Suffix   SuffixConfig    `yaml:"suffix_list"`
	Trusted  TrustedConfig   `yaml:"trusted"`
	Batch    BatchConfig     `yaml:"batch"`
	Jobs     JobsConfig      `yaml:"jobs"`
	Server   ServerConfig    `yaml:"server"`
}

// ModelConfig points at the classifier and label encoder artifacts.
type ModelConfig struct {
	Path       string `yaml:"path"`
	LabelsPath string `yaml:"labels_path"`
}

// SuffixConfig selects the public suffix list. An empty Path uses the list
// compiled into the binary.
type SuffixConfig struct {
	Path      string `yaml:"path"`
	ICANNOnly bool   `yaml:"icann_only"`
}

// TrustedConfig lists the trusted-domain sources. The final set is the union
// of every enabled source.
type TrustedConfig struct {
	// Defaults includes the built-in domains.
	Defaults bool `yaml:"defaults"`

	// File is a plain list, one domain per line.
	File string `yaml:"file"`

	// Database is a SQLite file managed with "trusted import".
	Database string `yaml:"database"`
}

// BatchConfig bounds batch classification.
type BatchConfig struct {
	// Workers is the number of concurrent classifications; 0 means NumCPU.
	Workers int `yaml:"workers"`

	// MaxURLs caps a single batch request.
	MaxURLs int `yaml:"max_urls"`
}

// JobsConfig controls asynchronous batch jobs.
type JobsConfig struct {
	// RetentionTime is how long finished jobs stay queryable.
	RetentionTime time.Duration `yaml:"retention_time"`

	// MaxJobs caps the jobs held in memory, running or finished.
	MaxJobs int `yaml:"max_jobs"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	// RateLimit is the sustained requests per second allowed per client
	// address; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string `yaml:"allowed_origin"`
}

// DefaultConfig returns a Config populated with sensible defaults. Model
// paths have no default and must be configured.
func DefaultConfig() *Config {
	return &Config{
		Logging: logging.Config{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Assessor: assessor.DefaultConfig(),
		Trusted: TrustedConfig{
			Defaults: true,
		},
		Batch: BatchConfig{
			Workers: 0,
			MaxURLs: 10000,
		},
		Jobs: JobsConfig{
			RetentionTime: 15 * time.Minute,
			MaxJobs:       64,
		},
		Server: ServerConfig{
			ListenAddr:    ":8080",
			RateLimit:     50,
			RateBurst:     100,
			AllowedOrigin: "*",
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are an
// error so typos do not silently fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML from r over DefaultConfig.
func ParseConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that can never work.
func (c *Config) Validate() error {
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative")
	}
	if c.Batch.MaxURLs <= 0 {
		return fmt.Errorf("batch.max_urls must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Jobs.MaxJobs <= 0 {
		return fmt.Errorf("jobs.max_jobs must be positive")
	}
	if c.Assessor.LookalikeMaxDistance < 0 {
		return fmt.Errorf("assessor.lookalike_max_distance must not be negative")
	}
	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
