package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional config
// file. Environment variables (prefix SCRY, e.g. SCRY_CLIENT_LOG_LEVEL) take
// precedence over values from the file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/scry")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SCRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate applies struct-tag validation plus the tuning step-token checks.
// Exposed so tests and callers assembling a Config by hand hit the same
// boundary rules as Load.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := validateSteps("tuning.learning_steps", cfg.Tuning.LearningSteps); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateSteps("tuning.relearning_steps", cfg.Tuning.RelearningSteps); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// setDefaults registers the defaults viper falls back to when neither the
// config file nor the environment provides a value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("client.log_level", "info")
	v.SetDefault("store.path", "scry.db")
	v.SetDefault("sync.server_url", "http://localhost:8080")
	v.SetDefault("sync.interval", "30s")
	v.SetDefault("sync.timeout", "15s")
	v.SetDefault("sync.batch_size", 100)
	v.SetDefault("tuning.request_retention", 0.9)
	v.SetDefault("tuning.maximum_interval", 36500)
	v.SetDefault("tuning.learning_steps", "1m,10m")
	v.SetDefault("tuning.relearning_steps", "10m")
}
