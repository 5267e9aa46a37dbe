// Package config loads oxidiff configuration from file, environment, and
// defaults.
package config

// Config is the top-level configuration struct for oxidiff.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// AnalysisConfig holds extraction and diff knobs.
type AnalysisConfig struct {
	// Workers is the extraction parallelism. Zero selects one worker
	// per CPU.
	Workers int `mapstructure:"workers"`

	// FullTree parses every Rust file of both trees instead of only
	// the files touched between them.
	FullTree bool `mapstructure:"full_tree"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Pretty bool   `mapstructure:"pretty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry export settings.
type TracingConfig struct {
	// Endpoint is the OTLP gRPC collector endpoint. Empty disables
	// tracing export.
	Endpoint string `mapstructure:"endpoint"`
}
