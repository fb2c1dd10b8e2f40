// Package config loads and validates the application configuration from a
// YAML file layered under environment variables (prefix REPORTPIPE).
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"reportpipe/internal/aggregate"
)

// Config represents the complete application configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Schedule ScheduleConfig `yaml:"schedule" envconfig:"SCHEDULE"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// PipelineConfig describes one report pipeline: its sources, the indicators
// to compute and the artifact to write.
type PipelineConfig struct {
	// Explicit source paths, loaded and concatenated in order.
	Sources []string `yaml:"sources"`
	// Alternative to Sources: discover files matching SourcePattern in
	// the data directory.
	SourcePattern string `yaml:"source_pattern"`

	Indicators []aggregate.IndicatorSpec `yaml:"indicators" validate:"required"`
	Output     OutputConfig              `yaml:"output"`
}

// OutputConfig is the artifact destination descriptor. Format is explicit,
// never inferred from the path.
type OutputConfig struct {
	Path   string `yaml:"path" envconfig:"OUTPUT_PATH" validate:"required"`
	Format string `yaml:"format" envconfig:"OUTPUT_FORMAT" validate:"required"`
}

// ScheduleConfig configures the optional scheduler. An empty Spec means the
// pipeline runs once and exits.
type ScheduleConfig struct {
	// Spec is a cron expression or an @every interval, e.g. "@every 1h".
	Spec string `yaml:"spec" envconfig:"SPEC"`
}

var validate = validator.New()

// Load reads configuration from the YAML file at path (optional) and then
// applies environment overrides. The result is validated before return.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("REPORTPIPE", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks structural constraints and the indicator specifications.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if len(c.Pipeline.Sources) == 0 && c.Pipeline.SourcePattern == "" {
		return fmt.Errorf("pipeline requires sources or a source_pattern")
	}
	if len(c.Pipeline.Sources) > 0 && c.Pipeline.SourcePattern != "" {
		return fmt.Errorf("sources and source_pattern are mutually exclusive")
	}
	return aggregate.ValidateSpecs(c.Pipeline.Indicators)
}

// SourceDescription is the human-readable source summary recorded in report
// metadata.
func (c *Config) SourceDescription() string {
	if c.Pipeline.SourcePattern != "" {
		return fmt.Sprintf("%s/%s", c.Paths.DataDir, c.Pipeline.SourcePattern)
	}
	if len(c.Pipeline.Sources) == 1 {
		return c.Pipeline.Sources[0]
	}
	return fmt.Sprintf("%d sources", len(c.Pipeline.Sources))
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "reportpipe.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "reports",
			LogsDir:    "logs",
		},
		Pipeline: PipelineConfig{
			Output: OutputConfig{Format: "csv"},
		},
	}
}
