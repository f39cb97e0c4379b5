package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gomix/internal"
	"gomix/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Model      ModelConfig
	Experiment ExperimentConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	GinMode        string
	AdminPort      string
	MaxUploadMB    int
	RequestTimeout time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level internal.LogLevel
}

// ModelConfig holds attribution model defaults
type ModelConfig struct {
	AdstockDecay float64
	Saturation   bool
	SweepDecays  []float64
}

// ExperimentConfig holds experiment design defaults
type ExperimentConfig struct {
	Alpha float64
	Power float64
	GeoCV float64
}

// DefaultSweepDecays is the decay grid used when MMM_SWEEP_DECAYS is unset.
var DefaultSweepDecays = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:     *loadServerConfig(),
		Experiment: *loadExperimentConfig(),
	}

	logConfig, err := loadLogConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load log configuration")
	}
	config.Log = *logConfig

	modelConfig, err := loadModelConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load model configuration")
	}
	config.Model = *modelConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// MaxUploadBytes is the multipart upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		AdminPort:      getEnvOrDefault("ADMIN_PORT", "9090"),
		MaxUploadMB:    getEnvIntOrDefault("MAX_UPLOAD_MB", 10),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func loadLogConfig() (*LogConfig, error) {
	raw := getEnvOrDefault("LOG_LEVEL", "INFO")
	level, ok := internal.ParseLogLevel(raw)
	if !ok {
		return nil, errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG, TRACE; got " + raw)
	}
	return &LogConfig{Level: level}, nil
}

func loadModelConfig() (*ModelConfig, error) {
	decays := DefaultSweepDecays
	if raw := os.Getenv("MMM_SWEEP_DECAYS"); raw != "" {
		parsed, err := ParseDecays(raw)
		if err != nil {
			return nil, err
		}
		decays = parsed
	}

	return &ModelConfig{
		AdstockDecay: getEnvFloatOrDefault("MMM_ADSTOCK_DECAY", 0.5),
		Saturation:   getEnvBoolOrDefault("MMM_SATURATION", true),
		SweepDecays:  decays,
	}, nil
}

func loadExperimentConfig() *ExperimentConfig {
	return &ExperimentConfig{
		Alpha: getEnvFloatOrDefault("EXPERIMENT_ALPHA", 0.05),
		Power: getEnvFloatOrDefault("EXPERIMENT_POWER", 0.8),
		GeoCV: getEnvFloatOrDefault("GEO_CV", 0.2),
	}
}

// ParseDecays parses a comma separated decay list such as "0,0.25,0.5".
func ParseDecays(raw string) ([]float64, error) {
	var decays []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("invalid decay " + strconv.Quote(part))
		}
		decays = append(decays, v)
	}
	if len(decays) == 0 {
		return nil, errors.ConfigInvalid("decay list is empty")
	}
	return decays, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Server.RequestTimeout <= 0 {
		return errors.ConfigInvalid("REQUEST_TIMEOUT must be positive")
	}
	if !validDecay(config.Model.AdstockDecay) {
		return errors.ConfigInvalid("MMM_ADSTOCK_DECAY must be in [0,1)")
	}
	for _, d := range config.Model.SweepDecays {
		if !validDecay(d) {
			return errors.ConfigInvalid("MMM_SWEEP_DECAYS values must be in [0,1)")
		}
	}
	if !openUnit(config.Experiment.Alpha) {
		return errors.ConfigInvalid("EXPERIMENT_ALPHA must be in (0,1)")
	}
	if !openUnit(config.Experiment.Power) {
		return errors.ConfigInvalid("EXPERIMENT_POWER must be in (0,1)")
	}
	if !(config.Experiment.GeoCV >= 0) {
		return errors.ConfigInvalid("GEO_CV must be non-negative")
	}
	return nil
}

func validDecay(d float64) bool { return d >= 0 && d < 1 }

func openUnit(v float64) bool { return v > 0 && v < 1 }

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
