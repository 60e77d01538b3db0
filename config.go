package omega

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultModel                 = "gpt-4"
	DefaultMaxCorrectionAttempts = 3
	DefaultWorkers               = 4
	DefaultRequestTimeout        = 2 * time.Minute

	// DefaultTemperature leans deterministic for section generation.
	DefaultTemperature = 0.2
)

// Config holds all interpreter settings. It is constructed once and passed
// into NewInterpreter; the engine never reads ambient global state.
type Config struct {
	// APIKey authenticates against the backend provider
	APIKey string `yaml:"api_key"`

	// DefaultModel is used when a call carries no model hint
	DefaultModel string `yaml:"default_model"`

	// Provider selects the backend implementation ("openai")
	Provider string `yaml:"provider"`

	// MaxCorrectionAttempts bounds the script correction loop
	MaxCorrectionAttempts int `yaml:"max_correction_attempts"`

	// Workers bounds concurrent backend calls within one execution
	Workers int `yaml:"workers"`

	// RequestTimeout applies to every backend call
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Temperature for section generation
	Temperature float64 `yaml:"temperature"`

	// LogDB is the optional SQLite path for interaction logs
	LogDB string `yaml:"log_db"`
}

// ConfigFromEnv builds a Config from the process environment:
// OPENAI_API_KEY, DEFAULT_MODEL, MODEL_PROVIDER and
// MAX_CORRECTION_ATTEMPTS, with defaults applied for everything unset.
func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		DefaultModel: os.Getenv("DEFAULT_MODEL"),
		Provider:     os.Getenv("MODEL_PROVIDER"),
	}
	if v := os.Getenv("MAX_CORRECTION_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxCorrectionAttempts = n
		}
	}
	return cfg.withDefaults()
}

// LoadConfig reads a YAML config file and overlays environment settings on
// top; environment values win.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("DEFAULT_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	if v := os.Getenv("MODEL_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("MAX_CORRECTION_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxCorrectionAttempts = n
		}
	}

	return cfg.withDefaults(), nil
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.MaxCorrectionAttempts <= 0 {
		c.MaxCorrectionAttempts = DefaultMaxCorrectionAttempts
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}
