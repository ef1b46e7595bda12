// Package config handles YAML configuration for ec2mc.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "~/.ec2mc/config.yaml"

var (
	namespacePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{1,62}$`)
	regionPattern    = regexp.MustCompile(`^[a-z]{2}(-gov)?-[a-z]+-\d$`)
)

// Config is the root configuration structure. It is built once at startup
// and passed by reference to every component that needs it.
type Config struct {
	Namespace  string           `yaml:"namespace"`
	AWS        AWSConfig        `yaml:"aws"`
	SetupDir   string           `yaml:"setup_dir"`
	KeyFile    string           `yaml:"key_file"`
	IPHandlers IPHandlersConfig `yaml:"ip_handlers"`
	Log        LogConfig        `yaml:"log"`
	OTEL       OTELConfig       `yaml:"otel"`
	Metrics    MetricsFile      `yaml:"metrics"`

	dir string
}

// AWSConfig holds AWS provider settings.
type AWSConfig struct {
	Profile string `yaml:"profile"`
	// Region is the home region used for global calls (DescribeRegions).
	Region string `yaml:"region"`
	// Regions is an optional whitelist. Empty means every enabled region.
	Regions []string `yaml:"regions"`
}

// IPHandlersConfig toggles the per-instance IP handler extension point.
type IPHandlersConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// OTELConfig holds OpenTelemetry settings.
type OTELConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Insecure    bool          `yaml:"insecure"`
	ServiceName string        `yaml:"service_name"`
	Traces      TracesConfig  `yaml:"traces"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// TracesConfig holds tracing settings.
type TracesConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sample_rate"`
}

// MetricsConfig holds OTLP metric export settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsFile controls the Prometheus textfile written on exit.
type MetricsFile struct {
	Textfile string `yaml:"textfile"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	path = ExpandHome(path)

	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.SetupDir == "" {
		cfg.SetupDir = "aws_setup"
	}
	if cfg.KeyFile == "" {
		cfg.KeyFile = cfg.Namespace + ".pem"
	}
	if cfg.IPHandlers.Dir == "" {
		cfg.IPHandlers.Dir = "ip_handlers"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "ec2mc"
	}

	cfg.SetupDir = cfg.resolve(cfg.SetupDir)
	cfg.KeyFile = cfg.resolve(cfg.KeyFile)
	cfg.IPHandlers.Dir = cfg.resolve(cfg.IPHandlers.Dir)
	if cfg.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = cfg.resolve(cfg.Metrics.Textfile)
	}
}

// resolve makes relative paths relative to the config file directory.
func (c *Config) resolve(p string) string {
	p = ExpandHome(p)
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Validate checks the configuration is valid.
func (c *Config) Validate() error {
	if !namespacePattern.MatchString(c.Namespace) {
		return fmt.Errorf("namespace %q must start with a letter and contain only letters, digits, '-' or '_'", c.Namespace)
	}
	for _, r := range c.AWS.Regions {
		if !regionPattern.MatchString(r) {
			return fmt.Errorf("aws: %q is not a region name", r)
		}
	}
	if c.OTEL.Traces.SampleRate < 0.0 || c.OTEL.Traces.SampleRate > 1.0 {
		return fmt.Errorf("otel: traces.sample_rate must be between 0.0 and 1.0 (got %v)", c.OTEL.Traces.SampleRate)
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if len(p) < 2 || p[:2] != "~/" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
