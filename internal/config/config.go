package config

import (
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Version is the semantic version of the tool, overridable at build time via
// -ldflags "-X .../internal/config.Version=...".
var Version = "0.2.0"

// Config holds the full application configuration. Values are resolved by
// viper with the usual precedence: flags > environment > config file >
// defaults.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	KEGG   KEGGConfig   `mapstructure:"kegg" yaml:"kegg"`
	Chart  ChartConfig  `mapstructure:"chart" yaml:"chart"`

	// Run gets its marching orders from CLI flags, not the config file.
	Run RunConfig `mapstructure:"-" yaml:"-"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// KEGGConfig tunes the KEGG REST client.
type KEGGConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// RequestInterval is the minimum spacing between successive API calls.
	// KEGG asks clients to stay at or below ~3 requests per second; the
	// default of 200ms keeps us well inside that.
	RequestInterval time.Duration `mapstructure:"request_interval" yaml:"request_interval"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// ChartConfig holds presentation settings for the circular bar plot.
type ChartConfig struct {
	Size     int    `mapstructure:"size" yaml:"size"`
	FontPath string `mapstructure:"font_path" yaml:"font_path"`
}

// RunConfig holds settings populated from CLI flags for a single pipeline run.
type RunConfig struct {
	Input       string
	ExcludeFile string
	CachePath   string
	Output      string
	Format      string
	Plot        bool
	PlotFile    string
	TopN        int
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "ko2pathway")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- KEGG --
	v.SetDefault("kegg.base_url", "https://rest.kegg.jp")
	v.SetDefault("kegg.request_interval", 200*time.Millisecond)
	v.SetDefault("kegg.request_timeout", "30s")
	v.SetDefault("kegg.user_agent", "ko2pathway/"+Version)

	// -- Chart --
	v.SetDefault("chart.size", 1200)
	v.SetDefault("chart.font_path", "")
}

// NewConfigFromViper creates a validated configuration from a viper instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.KEGG.BaseURL == "" {
		return fmt.Errorf("kegg.base_url is a required configuration field")
	}
	if c.KEGG.RequestInterval < 0 {
		return fmt.Errorf("kegg.request_interval must not be negative")
	}
	if c.KEGG.RequestTimeout <= 0 {
		return fmt.Errorf("kegg.request_timeout must be a positive duration")
	}
	if c.Chart.Size < 200 {
		return fmt.Errorf("chart.size must be at least 200 pixels")
	}
	return nil
}

// Validate checks the per-run settings once flags have been applied.
func (r *RunConfig) Validate() error {
	if r.Input == "" {
		return fmt.Errorf("an input file is required")
	}
	switch strings.ToLower(r.Format) {
	case "tsv", "json":
	default:
		return fmt.Errorf("unsupported output format %q (want 'tsv' or 'json')", r.Format)
	}
	if r.TopN <= 0 {
		return fmt.Errorf("top must be a positive integer")
	}
	return nil
}

// ExpandPaths resolves a leading ~ in user supplied file paths so the cache
// can live under the operator's home directory.
func (r *RunConfig) ExpandPaths() error {
	for _, p := range []*string{&r.Input, &r.ExcludeFile, &r.CachePath, &r.Output, &r.PlotFile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}
