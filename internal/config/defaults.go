package config

import "time"

// Default values applied by [Config.ApplyDefaults] when the corresponding
// field is zero.
const (
	DefaultListenAddr     = "127.0.0.1:8490"
	DefaultLogLevel       = LogInfo
	DefaultRequestTimeout = 5 * time.Second
	DefaultDebounceWindow = 1500 * time.Millisecond
	DefaultQueueCapacity  = 10
	DefaultDrainDelay     = 500 * time.Millisecond
	DefaultCacheTTL       = 5 * time.Minute
	DefaultFingerprint    = 100
)

// ApplyDefaults fills zero-valued fields with the package defaults.
// Called by the loader after decoding; call it directly when building a
// [Config] in code.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = DefaultLogLevel
	}
	if cfg.Annotation.RequestTimeout == 0 {
		cfg.Annotation.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if cfg.Pipeline.DebounceWindow == 0 {
		cfg.Pipeline.DebounceWindow = Duration(DefaultDebounceWindow)
	}
	if cfg.Pipeline.QueueCapacity == 0 {
		cfg.Pipeline.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.Pipeline.DrainDelay == 0 {
		cfg.Pipeline.DrainDelay = Duration(DefaultDrainDelay)
	}
	if cfg.Pipeline.CacheTTL == 0 {
		cfg.Pipeline.CacheTTL = Duration(DefaultCacheTTL)
	}
	if cfg.Pipeline.FingerprintLength == 0 {
		cfg.Pipeline.FingerprintLength = DefaultFingerprint
	}
}
