package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns
// a joined error listing all validation failures found; conditions that
// are legal but probably unintended are logged as warnings instead.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Annotation.BaseURL == "" {
		slog.Warn("annotation.base_url is empty; AI annotations are disabled, only local detection will run")
	}
	if cfg.Annotation.BaseURL != "" && cfg.Annotation.APIKey == "" {
		slog.Warn("annotation.api_key is empty; requests to the annotation backend will be unauthenticated")
	}
	if cfg.Annotation.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("annotation.request_timeout must not be negative"))
	}

	if cfg.Pipeline.DebounceWindow < 0 {
		errs = append(errs, fmt.Errorf("pipeline.debounce_window must not be negative"))
	}
	if cfg.Pipeline.QueueCapacity < 0 {
		errs = append(errs, fmt.Errorf("pipeline.queue_capacity must not be negative"))
	}
	if cfg.Pipeline.DrainDelay < 0 {
		errs = append(errs, fmt.Errorf("pipeline.drain_delay must not be negative"))
	}
	if cfg.Pipeline.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("pipeline.cache_ttl must not be negative"))
	}
	if cfg.Pipeline.FingerprintLength < 0 {
		errs = append(errs, fmt.Errorf("pipeline.fingerprint_length must not be negative"))
	}

	if f := cfg.Terminology.DictionaryFile; f != "" {
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("terminology.dictionary_file: %w", err))
		}
	}
	if f := cfg.Terminology.MedicationFile; f != "" {
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("terminology.medication_file: %w", err))
		}
	}

	return errors.Join(errs...)
}
