package config

import (
	"fmt"
	"time"

	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/domain/srs"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Client ClientConfig `mapstructure:"client" validate:"required"`
	Store  StoreConfig  `mapstructure:"store"  validate:"required"`
	Sync   SyncConfig   `mapstructure:"sync"   validate:"required"`
	Tuning TuningConfig `mapstructure:"tuning" validate:"required"`
}

// ClientConfig contains settings for the client process itself.
type ClientConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// DeviceID identifies this device in review queue idempotency keys.
	// Empty means a generated ID persisted alongside the store.
	DeviceID string `mapstructure:"device_id" validate:"omitempty,uuid4"`
}

// StoreConfig contains settings for the device-resident durable store.
type StoreConfig struct {
	// Path is the sqlite database file. ":memory:" is accepted for tests.
	Path string `mapstructure:"path" validate:"required"`
}

// SyncConfig contains settings for the sync driver and server client.
type SyncConfig struct {
	ServerURL string        `mapstructure:"server_url" validate:"required,url"`
	Interval  time.Duration `mapstructure:"interval"   validate:"required,min=1s"`
	Timeout   time.Duration `mapstructure:"timeout"    validate:"required,min=1s"`
	BatchSize int           `mapstructure:"batch_size" validate:"required,gte=1,lte=1000"`
}

// TuningConfig is the default deck tuning applied when a deck carries no
// override. Step lists are comma-separated "<positive integer><m|h|d>"
// tokens; syntax is validated here, at the configuration boundary, and never
// inside the scheduler.
type TuningConfig struct {
	RequestRetention float64 `mapstructure:"request_retention" validate:"required,gte=0.70,lte=0.97"`
	MaximumInterval  int     `mapstructure:"maximum_interval"  validate:"required,gte=30,lte=36500"`
	LearningSteps    string  `mapstructure:"learning_steps"    validate:"required"`
	RelearningSteps  string  `mapstructure:"relearning_steps"  validate:"required"`
}

// TuningParams converts the raw tuning settings into the domain value object.
// Call only after Load has validated the configuration.
func (t TuningConfig) TuningParams() *domain.TuningParams {
	return &domain.TuningParams{
		RequestRetention: t.RequestRetention,
		MaximumInterval:  t.MaximumInterval,
		LearningSteps:    srs.ParseLearningSteps(t.LearningSteps),
		RelearningSteps:  srs.ParseLearningSteps(t.RelearningSteps),
	}
}

// validateSteps rejects empty or malformed step lists.
func validateSteps(field, raw string) error {
	tokens := srs.ParseLearningSteps(raw)
	if len(tokens) == 0 {
		return fmt.Errorf("%s: step list cannot be empty", field)
	}
	for _, token := range tokens {
		if _, err := srs.ParseStepToken(token); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}
