// Package config provides the configuration schema and loader for the
// Clarivox interpreter-assistance server.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the Clarivox server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration wraps [time.Duration] so YAML configs can use human-readable
// values like "1.5s" or "500ms".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure for Clarivox.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Annotation  AnnotationConfig  `yaml:"annotation"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Terminology TerminologyConfig `yaml:"terminology"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., "127.0.0.1:8490").
	// The server is meant to face a local browser extension, not the network.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// AnnotationConfig configures the remote annotation backend.
type AnnotationConfig struct {
	// BaseURL is the backend's base address (e.g., "https://api.example.com").
	// When empty, AI annotations are disabled and only local detection runs.
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer credential on every request.
	APIKey string `yaml:"api_key"`

	// UseMedicalAI asks the backend to run its medical model pass.
	UseMedicalAI bool `yaml:"use_medical_ai"`

	// RequestTimeout caps a single annotation call.
	RequestTimeout Duration `yaml:"request_timeout"`
}

// PipelineConfig tunes the per-session processing pipeline.
type PipelineConfig struct {
	// DebounceWindow is how long after the last final utterance processing
	// waits, so rapid speech is handled in one batch.
	DebounceWindow Duration `yaml:"debounce_window"`

	// QueueCapacity bounds the annotation request backlog per session.
	QueueCapacity int `yaml:"queue_capacity"`

	// DrainDelay is the pause between consecutive annotation calls.
	DrainDelay Duration `yaml:"drain_delay"`

	// CacheTTL is how long cached annotation results stay servable.
	CacheTTL Duration `yaml:"cache_ttl"`

	// FingerprintLength bounds the cache key prefix in runes.
	FingerprintLength int `yaml:"fingerprint_length"`

	// PhoneticFallback enables misheard-term recovery in the term matcher.
	PhoneticFallback bool `yaml:"phonetic_fallback"`
}

// TerminologyConfig points at optional vocabulary files merged over the
// built-in dictionaries.
type TerminologyConfig struct {
	// DictionaryFile is a YAML medical term dictionary.
	DictionaryFile string `yaml:"dictionary_file"`

	// MedicationFile is a YAML medication database.
	MedicationFile string `yaml:"medication_file"`
}
