// Package config loads server configuration.
// Precedence: flags > env (DATASCOPE_*) > config file > defaults.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server needs at startup.
type Config struct {
	Addr           string `mapstructure:"addr" yaml:"addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	SessionTTLMin int `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`

	// AnalysisSampleCap bounds how many values hypothesis tests and sampled
	// statistics look at per column.
	AnalysisSampleCap int `mapstructure:"analysis_sample_cap" yaml:"analysis_sample_cap"`

	// NormalitySampleCap bounds the normality test specifically; the test
	// statistic loses meaning on very large samples.
	NormalitySampleCap int `mapstructure:"normality_sample_cap" yaml:"normality_sample_cap"`

	MaxLoadRows int `mapstructure:"max_load_rows" yaml:"max_load_rows"`

	// Metrics
	MetricsBackend string `mapstructure:"metrics_backend" yaml:"metrics_backend"` // "" | "none" | "datadog"
	MetricsTags    string `mapstructure:"metrics_tags" yaml:"metrics_tags"`
}

// SessionTTL converts the configured minutes to a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}

// Load reads configuration from the optional yaml file at cfgFile plus the
// environment. Flag overrides are applied by the command layer afterwards.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DATASCOPE")
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("max_upload_bytes", int64(64<<20))
	v.SetDefault("session_ttl_min", 30)
	v.SetDefault("analysis_sample_cap", 50000)
	v.SetDefault("normality_sample_cap", 5000)
	v.SetDefault("max_load_rows", 1_000_000)
	v.SetDefault("metrics_backend", "")
	v.SetDefault("metrics_tags", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("datascope")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.SessionTTLMin <= 0 {
		return fmt.Errorf("config: session_ttl_min must be positive, got %d", c.SessionTTLMin)
	}
	if c.AnalysisSampleCap <= 0 {
		return fmt.Errorf("config: analysis_sample_cap must be positive, got %d", c.AnalysisSampleCap)
	}
	if c.NormalitySampleCap <= 0 {
		return fmt.Errorf("config: normality_sample_cap must be positive, got %d", c.NormalitySampleCap)
	}
	if c.MaxLoadRows <= 0 {
		return fmt.Errorf("config: max_load_rows must be positive, got %d", c.MaxLoadRows)
	}
	return nil
}
