// Package config loads the scopelog configuration document: backend settings,
// the root log level map and tags, and default rate limits.
package config

// Output formats accepted by backend.format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the top-level structure of a scopelog YAML document.
type Config struct {
	SchemaVersion string `yaml:"schemaVersion"`

	// Name is the name of the root logger, used for level map lookups.
	Name string `yaml:"name,omitempty"`

	Backend BackendConfig `yaml:"backend,omitempty"`

	// Levels forces logging for selected loggers in every scope.
	Levels *LevelMapConfig `yaml:"levels,omitempty"`

	// Tags are attached to every statement. A nil value declares a bare tag
	// and a list declares several values.
	Tags map[string]any `yaml:"tags,omitempty"`

	// RateLimit applies to statements that configure no limit of their own.
	RateLimit *RateLimitPolicy `yaml:"rate_limit,omitempty"`

	Tracing TracingConfig `yaml:"tracing,omitempty"`

	// FilePath is the source of the document, for error messages only.
	FilePath string `yaml:"-"`
}

// BackendConfig configures the slog backend.
type BackendConfig struct {
	Level       string `yaml:"level,omitempty"`
	Format      string `yaml:"format,omitempty"`
	EventBuffer int    `yaml:"event_buffer,omitempty"`
}

// LevelMapConfig is the YAML form of a level.Map.
type LevelMapConfig struct {
	Default string            `yaml:"default,omitempty"`
	Loggers map[string]string `yaml:"loggers,omitempty"`
}

// TracingConfig controls how logged statements reach OpenTelemetry.
type TracingConfig struct {
	SpanEvents bool `yaml:"span_events,omitempty"`

	// Redact lists tag names, case-insensitive, whose values are masked in
	// span events.
	Redact []string `yaml:"redact,omitempty"`
}

// Default returns the configuration used when no document is given.
func Default() *Config {
	return &Config{
		SchemaVersion: SupportedSchemaVersionConstraint + ".0.0",
		Name:          "scopelog",
		Backend: BackendConfig{
			Level:  "INFO",
			Format: FormatText,
		},
	}
}
