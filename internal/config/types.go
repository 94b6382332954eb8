package config

import (
	"time"

	"github.com/privacykit/governance/internal/audit"
	"github.com/privacykit/governance/internal/consent"
)

// Config is the wiring configuration for the governanced binary. The engine
// packages themselves take explicit parameters; this only selects adapters
// and operational defaults.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	Detection DetectionConfig `yaml:"detection" mapstructure:"detection"`
	Anonymity AnonymityConfig `yaml:"anonymity" mapstructure:"anonymity"`
	Consent   ConsentConfig   `yaml:"consent" mapstructure:"consent"`
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Retention RetentionConfig `yaml:"retention" mapstructure:"retention"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// DetectionConfig contains PII detection defaults
type DetectionConfig struct {
	MinConfidence float64  `yaml:"min_confidence" mapstructure:"min_confidence"`
	Types         []string `yaml:"types" mapstructure:"types"` // empty or ["all"] enables every pattern
}

// AnonymityConfig contains k-anonymity defaults
type AnonymityConfig struct {
	DefaultK  int `yaml:"default_k" mapstructure:"default_k"`
	MaxRounds int `yaml:"max_rounds" mapstructure:"max_rounds"`
}

// ConsentConfig selects and configures the consent storage adapter
type ConsentConfig struct {
	Store    string                 `yaml:"store" mapstructure:"store"` // memory, redis, or postgres
	Version  string                 `yaml:"version" mapstructure:"version"`
	Redis    consent.RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Postgres consent.PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// AuditConfig selects and configures the audit storage adapter
type AuditConfig struct {
	Store      string               `yaml:"store" mapstructure:"store"` // memory or postgres
	Postgres   audit.PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
	ArchiveDir string               `yaml:"archive_dir" mapstructure:"archive_dir"`
}

// RetentionConfig contains retention scheduler defaults
type RetentionConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval"`
	BatchSize     int           `yaml:"batch_size" mapstructure:"batch_size"`
	DeleteRate    float64       `yaml:"delete_rate" mapstructure:"delete_rate"` // batches per second, 0 = unlimited
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Detection: DetectionConfig{
			MinConfidence: 0.5,
			Types:         []string{"all"},
		},
		Anonymity: AnonymityConfig{
			DefaultK:  2,
			MaxRounds: 10,
		},
		Consent: ConsentConfig{
			Store:   "memory",
			Version: "1.0",
		},
		Audit: AuditConfig{
			Store:      "memory",
			ArchiveDir: "archives",
		},
		Retention: RetentionConfig{
			Enabled:       true,
			CheckInterval: 24 * time.Hour,
			BatchSize:     100,
		},
	}
	return cfg
}
