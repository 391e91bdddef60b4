package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"flightprep/internal/schema"
)

// Config represents the complete application configuration
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Policy   PolicyConfig   `yaml:"policy" envconfig:"POLICY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// PipelineConfig contains filesystem locations for a run
type PipelineConfig struct {
	// InputDir holds the monthly zip archives downloaded from the publisher.
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`

	// ArtifactPath is where the typed table is written.
	ArtifactPath string `yaml:"artifact_path" envconfig:"ARTIFACT_PATH" validate:"required"`

	// ReportPath is where the cleaning workbook is written. Empty disables it.
	ReportPath string `yaml:"report_path" envconfig:"REPORT_PATH"`
}

// PolicyConfig contains the missing-data policy knobs
type PolicyConfig struct {
	TargetColumn        string   `yaml:"target_column" envconfig:"TARGET_COLUMN" validate:"required,dictcolumn"`
	ColumnDropThreshold float64  `yaml:"column_drop_threshold" envconfig:"COLUMN_DROP_THRESHOLD" validate:"gt=0,lte=1"`
	MaxTargetMissing    float64  `yaml:"max_target_missing" envconfig:"MAX_TARGET_MISSING" validate:"gt=0,lte=1"`
	MaxGroupSkew        float64  `yaml:"max_group_skew" envconfig:"MAX_GROUP_SKEW" validate:"gte=1"`
	GateDimensions      []string `yaml:"gate_dimensions" envconfig:"GATE_DIMENSIONS" validate:"min=1,dive,dictcolumn"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Load loads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence. An empty
// path makes Load search the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("FLIGHTPREP", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays values from a YAML file onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

// normalize cleans up values that validation would otherwise reject
// for cosmetic reasons only
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Output = strings.ToLower(strings.TrimSpace(c.Logging.Output))

	if c.Logging.FilePath == "" && c.Logging.Output != "console" {
		c.Logging.FilePath = "logs/flightprep.log"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("dictcolumn", validateDictColumn); err != nil {
		return fmt.Errorf("failed to register validation: %w", err)
	}

	if err := v.Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path required for output %q", c.Logging.Output)
	}

	return nil
}

// validateDictColumn accepts only column names declared in the dataset
// dictionary, so policy typos fail at startup instead of mid-run.
func validateDictColumn(fl validator.FieldLevel) bool {
	_, ok := schema.Lookup(fl.Field().String())
	return ok
}

// findConfigFile returns the first config file found in the usual locations
func findConfigFile() string {
	locations := []string{
		"flightprep.yaml",
		"configs/flightprep.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			InputDir:     "data/raw",
			ArtifactPath: "data/clean/flights.arrow",
			ReportPath:   "data/clean/cleaning_report.xlsx",
		},
		Policy: PolicyConfig{
			TargetColumn:        schema.TargetColumn,
			ColumnDropThreshold: 0.05,
			MaxTargetMissing:    0.05,
			MaxGroupSkew:        10,
			GateDimensions:      []string{"OriginState", "Month"},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/flightprep.log",
		},
	}
}
