// Package config loads the report server configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/radiomobile/internal/observability"
)

// Config is the report-server configuration. Command-line flags override
// the file values.
type Config struct {
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	// Reports are loaded at startup and re-read every ReloadInterval. Zero
	// disables reloading.
	Reports        []string      `yaml:"reports"`
	ReloadInterval time.Duration `yaml:"reload_interval"`

	// Encoding of the report files: auto, utf-8, latin1 or windows-1252.
	Encoding string `yaml:"encoding"`

	Tracing observability.TracingConfig `yaml:"tracing"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		GRPCAddr:       ":50061",
		MetricsAddr:    ":9090",
		ReloadInterval: time.Minute,
		Encoding:       "auto",
		Tracing:        observability.DefaultTracingConfig(),
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be caught by YAML decoding.
func (c Config) Validate() error {
	var errs []error
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc_addr is empty"))
	}
	if c.ReloadInterval < 0 {
		errs = append(errs, fmt.Errorf("reload_interval %v is negative", c.ReloadInterval))
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio %v outside [0,1]", r))
	}
	for i, p := range c.Reports {
		if p == "" {
			errs = append(errs, fmt.Errorf("reports[%d] is empty", i))
		}
	}
	return errors.Join(errs...)
}
