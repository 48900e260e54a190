// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Dataset configuration
	Data DataConfig `yaml:"data"`

	// Output configuration
	Output OutputConfig `yaml:"output"`

	// Training configuration
	Train TrainConfig `yaml:"train"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// DataConfig holds dataset file locations.
type DataConfig struct {
	TrainFile      string `envconfig:"TAGFORGE_TRAIN_FILE" yaml:"train_file"`
	ValidationFile string `envconfig:"TAGFORGE_VALIDATION_FILE" yaml:"validation_file"`
	// VocabularyFile optionally pins the label vocabulary to an explicit
	// JSON list instead of collecting it from the corpus.
	VocabularyFile string `envconfig:"TAGFORGE_VOCABULARY_FILE" yaml:"vocabulary_file"`
}

// OutputConfig holds artifact and report locations.
type OutputConfig struct {
	Dir             string `envconfig:"TAGFORGE_OUTPUT_DIR" yaml:"dir"`
	ReportFile      string `envconfig:"TAGFORGE_REPORT_FILE" yaml:"report_file"`
	ModelFile       string `envconfig:"TAGFORGE_MODEL_FILE" yaml:"model_file"`
	VocabularyFile  string `envconfig:"TAGFORGE_OUTPUT_VOCABULARY_FILE" yaml:"vocabulary_file"`
	PredictionsFile string `envconfig:"TAGFORGE_PREDICTIONS_FILE" yaml:"predictions_file"`
}

// TrainConfig holds classifier hyperparameters.
type TrainConfig struct {
	Penalty       string  `envconfig:"TAGFORGE_PENALTY" yaml:"penalty"`
	C             float64 `envconfig:"TAGFORGE_C" yaml:"c"`
	MaxIterations int     `envconfig:"TAGFORGE_MAX_ITERATIONS" yaml:"max_iterations"`
	Tolerance     float64 `envconfig:"TAGFORGE_TOLERANCE" yaml:"tolerance"`
	Parallelism   int     `envconfig:"TAGFORGE_PARALLELISM" yaml:"parallelism"` // 0 = GOMAXPROCS
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"TAGFORGE_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"TAGFORGE_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Output = OutputConfig{
		Dir:             ".",
		ReportFile:      "stats.txt",
		ModelFile:       "model.msgpack",
		VocabularyFile:  "vocabulary.msgpack",
		PredictionsFile: "predictions.jsonl",
	}

	cfg.Train = TrainConfig{
		Penalty:       "l2",
		C:             10,
		MaxIterations: 1000,
		Tolerance:     1e-4,
		Parallelism:   0,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Training validation
	validPenalties := map[string]bool{"l1": true, "l2": true}
	if !validPenalties[c.Train.Penalty] {
		errs = append(errs, fmt.Sprintf("invalid penalty: %s (must be l1 or l2)", c.Train.Penalty))
	}

	if c.Train.C <= 0 {
		errs = append(errs, "c must be positive")
	}

	if c.Train.MaxIterations < 1 {
		errs = append(errs, "max_iterations must be positive")
	}

	if c.Train.Tolerance <= 0 {
		errs = append(errs, "tolerance must be positive")
	}

	if c.Train.Parallelism < 0 {
		errs = append(errs, "parallelism must not be negative")
	}

	// Output validation
	if c.Output.Dir == "" {
		errs = append(errs, "output dir must not be empty")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ReportPath returns the evaluation report location.
func (c *Config) ReportPath() string {
	return filepath.Join(c.Output.Dir, c.Output.ReportFile)
}

// ModelPath returns the trained model artifact location.
func (c *Config) ModelPath() string {
	return filepath.Join(c.Output.Dir, c.Output.ModelFile)
}

// VocabularyPath returns the vocabulary artifact location.
func (c *Config) VocabularyPath() string {
	return filepath.Join(c.Output.Dir, c.Output.VocabularyFile)
}

// PredictionsPath returns the predictions output location.
func (c *Config) PredictionsPath() string {
	return filepath.Join(c.Output.Dir, c.Output.PredictionsFile)
}
