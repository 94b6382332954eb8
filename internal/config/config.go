package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	config := GetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/governanced/")
	viper.AddConfigPath("$HOME/.governanced/")

	viper.SetEnvPrefix("GOVERNANCE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}
	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	if config.Detection.MinConfidence < 0 || config.Detection.MinConfidence > 1 {
		return fmt.Errorf("invalid min_confidence: %f (must be in [0,1])", config.Detection.MinConfidence)
	}

	if config.Anonymity.DefaultK < 1 {
		return fmt.Errorf("invalid default_k: %d (must be at least 1)", config.Anonymity.DefaultK)
	}
	if config.Anonymity.MaxRounds < 1 {
		return fmt.Errorf("invalid max_rounds: %d (must be at least 1)", config.Anonymity.MaxRounds)
	}

	switch config.Consent.Store {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("invalid consent store: %s (must be memory, redis, or postgres)", config.Consent.Store)
	}
	if config.Consent.Store == "redis" && config.Consent.Redis.RedisURL == "" {
		return fmt.Errorf("consent store is redis but redis_url is empty")
	}
	if config.Consent.Store == "postgres" && config.Consent.Postgres.DatabaseURL == "" {
		return fmt.Errorf("consent store is postgres but database_url is empty")
	}

	switch config.Audit.Store {
	case "memory", "postgres":
	default:
		return fmt.Errorf("invalid audit store: %s (must be memory or postgres)", config.Audit.Store)
	}
	if config.Audit.Store == "postgres" && config.Audit.Postgres.DatabaseURL == "" {
		return fmt.Errorf("audit store is postgres but database_url is empty")
	}

	if config.Retention.BatchSize < 1 {
		return fmt.Errorf("invalid retention batch_size: %d (must be at least 1)", config.Retention.BatchSize)
	}

	return nil
}

// Watch starts watching the configuration file for changes
func Watch(config *Config, callback func(*Config)) error {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := GetDefaults()
		if err := viper.Unmarshal(newConfig); err != nil {
			// Log error but don't crash
			return
		}

		if err := validateConfig(newConfig); err != nil {
			return
		}

		callback(newConfig)
	})

	return nil
}
