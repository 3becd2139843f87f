package utils

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every ValidateConfig failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds training configuration
type Config struct {
	DataRoot      string
	OutDir        string
	SaveName      string
	Model         string
	Optimizer     string
	LearningRate  float64
	BatchSize     int
	Epochs        int
	SaveEvery     int
	SplitRatio    float64
	ImageSize     int
	Seed          int64
	AllowTrunc    bool
	AutoNormalize bool
}

// DefaultConfig returns the settings used when a flag is left unset.
func DefaultConfig() Config {
	return Config{
		OutDir:       ".",
		SaveName:     "model",
		Model:        "cnn",
		Optimizer:    "adam",
		LearningRate: 1e-3,
		BatchSize:    32,
		Epochs:       10,
		SaveEvery:    1,
		SplitRatio:   0.8,
		ImageSize:    32,
	}
}

// ValidateConfig validates training configuration. Model and optimizer names
// are checked against their registries by train.ValidateConfig.
func ValidateConfig(config *Config) error {
	if config.DataRoot == "" {
		return fmt.Errorf("%w: data root must be set", ErrInvalidConfig)
	}
	if config.SplitRatio <= 0 || config.SplitRatio >= 1 {
		return fmt.Errorf("%w: split ratio must be in (0,1), got %g", ErrInvalidConfig, config.SplitRatio)
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	if config.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be positive", ErrInvalidConfig)
	}
	if config.SaveEvery <= 0 {
		return fmt.Errorf("%w: save-every must be positive", ErrInvalidConfig)
	}
	if config.ImageSize <= 0 {
		return fmt.Errorf("%w: image size must be positive", ErrInvalidConfig)
	}
	if config.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive", ErrInvalidConfig)
	}
	if config.SaveName == "" {
		return fmt.Errorf("%w: save name must be set", ErrInvalidConfig)
	}
	if config.Model == "" || config.Optimizer == "" {
		return fmt.Errorf("%w: model and optimizer must be set", ErrInvalidConfig)
	}
	return nil
}
