package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "CFDPREP"

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system locations. Relative entries resolve against BaseDir.
type PathsConfig struct {
	BaseDir          string `yaml:"base_dir" envconfig:"BASE_DIR"`
	SymbolsFile      string `yaml:"symbols_file" envconfig:"SYMBOLS_FILE" validate:"required"`
	RawDataDir       string `yaml:"raw_data_dir" envconfig:"RAW_DATA_DIR" validate:"required"`
	ProcessedDataDir string `yaml:"processed_data_dir" envconfig:"PROCESSED_DATA_DIR" validate:"required"`
	LogsDir          string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// ProcessingConfig controls how instruments are scheduled
type ProcessingConfig struct {
	// Parallelism is the number of instruments processed at once; 1 is sequential
	Parallelism int `yaml:"parallelism" envconfig:"PARALLELISM" validate:"min=1,max=64"`
	// FailFast stops the batch at the first failed instrument
	FailFast bool `yaml:"fail_fast" envconfig:"FAIL_FAST"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	// MetricsFile, when set, receives a Prometheus text-format dump after each batch
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			SymbolsFile:      DefaultSymbolsFile,
			RawDataDir:       DefaultRawDataDir,
			ProcessedDataDir: DefaultProcessedDataDir,
			LogsDir:          DefaultLogsDir,
		},
		Processing: ProcessingConfig{
			Parallelism: 1,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			Environment:   "development",
			TraceExporter: "none",
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file,
// then CFDPREP_* environment variables, each layer overriding the previous one.
// An empty configFile falls back to the first config.yaml found in the usual locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints and normalizes logging values
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Telemetry.TraceExporter = strings.ToLower(c.Telemetry.TraceExporter)

	if err := validator.New().Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires a file path", c.Logging.Output)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		DefaultConfigFile,
		DefaultConfigFileAlt,
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// formatValidationErrors flattens validator errors into one readable error
func formatValidationErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
