package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"adhypo/internal/errors"
)

// DefaultPath is read when no --config flag is given
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Data       DataConfig       `yaml:"data" validate:"required"`
	Thresholds ThresholdsConfig `yaml:"thresholds" validate:"required"`
	Agents     AgentsConfig     `yaml:"agents"`
	LLM        LLMConfig        `yaml:"llm"`
	Output     OutputConfig     `yaml:"output" validate:"required"`
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server" validate:"required"`
}

// DataConfig selects the ad performance table
type DataConfig struct {
	CSVPath       string `yaml:"csv_path"`
	SampleCSVPath string `yaml:"sample_csv_path"`
	UseSample     bool   `yaml:"use_sample"`
}

// Path returns the sample table when use_sample is set
func (d DataConfig) Path() string {
	if d.UseSample && d.SampleCSVPath != "" {
		return d.SampleCSVPath
	}
	return d.CSVPath
}

// ThresholdsConfig holds analysis cut-offs
type ThresholdsConfig struct {
	CTRBenchmark      float64 `yaml:"ctr_benchmark" validate:"gt=0,lt=1"`
	CTRLow            float64 `yaml:"ctr_low" validate:"gt=0,lt=1"`
	SpendSignificance float64 `yaml:"spend_significance" validate:"gte=0"`
	MinGroupSize      int     `yaml:"min_group_size" validate:"gte=2"`
	MinTrendDays      int     `yaml:"min_trend_days" validate:"gte=4"`
	HighROAS          float64 `yaml:"high_roas" validate:"gt=0"`
	HighCTR           float64 `yaml:"high_ctr" validate:"gt=0,lte=1"`
}

// AgentsConfig tunes the planner and creative stages
type AgentsConfig struct {
	Planner           PlannerConfig           `yaml:"planner"`
	CreativeGenerator CreativeGeneratorConfig `yaml:"creative_generator"`
}

type PlannerConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
}

type CreativeGeneratorConfig struct {
	MaxSuggestions int     `yaml:"max_suggestions" validate:"gte=1,lte=5"`
	MinConfidence  float64 `yaml:"min_confidence" validate:"gte=0,lte=1"`
}

// LLMConfig selects the language model provider. Provider "none" runs fully
// offline with the rule-based fallbacks.
type LLMConfig struct {
	Provider string        `yaml:"provider" validate:"oneof=none openai"`
	APIKey   string        `yaml:"api_key" validate:"required_if=Provider openai"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Enabled reports whether a language model is configured
func (l LLMConfig) Enabled() bool {
	return l.Provider == "openai" && l.APIKey != ""
}

type OutputConfig struct {
	ReportsDir string `yaml:"reports_dir" validate:"required"`
	HTML       bool   `yaml:"html"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	File   string `yaml:"file"`
}

// DatabaseConfig holds run store settings. An empty URL disables the store.
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=postgres sqlite"`
	URL    string `yaml:"url"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `yaml:"port" validate:"required,numeric"`
	GinMode string `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`
}

// Default returns a complete offline configuration
func Default() *Config {
	return &Config{
		Data: DataConfig{
			CSVPath:       "data/ad_performance.csv",
			SampleCSVPath: "data/sample_ad_performance.csv",
		},
		Thresholds: ThresholdsConfig{
			CTRBenchmark:      0.015,
			CTRLow:            0.015,
			SpendSignificance: 100,
			MinGroupSize:      3,
			MinTrendDays:      7,
			HighROAS:          50,
			HighCTR:           0.1,
		},
		Agents: AgentsConfig{
			Planner:           PlannerConfig{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 1500},
			CreativeGenerator: CreativeGeneratorConfig{MaxSuggestions: 5},
		},
		LLM:      LLMConfig{Provider: "none", Timeout: 60 * time.Second},
		Output:   OutputConfig{ReportsDir: "reports"},
		Logging:  LoggingConfig{Level: "INFO", Format: "text"},
		Database: DatabaseConfig{Driver: "postgres"},
		Server:   ServerConfig{Port: "8080", GinMode: "release"},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates. A missing file at DefaultPath is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse %s: %w", path, err))
		}
	case explicit || !os.IsNotExist(err):
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("read %s: %w", path, err))
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Data.CSVPath = getEnvOrDefault("DATA_CSV", cfg.Data.CSVPath)
	cfg.Data.UseSample = getEnvBoolOrDefault("USE_SAMPLE_DATA", cfg.Data.UseSample)

	cfg.LLM.APIKey = getEnvOrDefault("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnvOrDefault("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnvOrDefault("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Provider = getEnvOrDefault("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Timeout = getEnvDurationOrDefault("LLM_TIMEOUT", cfg.LLM.Timeout)
	cfg.Agents.Planner.Temperature = float32(getEnvFloatOrDefault("PLANNER_TEMPERATURE", float64(cfg.Agents.Planner.Temperature)))
	cfg.Agents.Planner.MaxTokens = getEnvIntOrDefault("MAX_TOKENS", cfg.Agents.Planner.MaxTokens)

	cfg.Logging.Level = strings.ToUpper(getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(getEnvOrDefault("LOG_FORMAT", cfg.Logging.Format))
	cfg.Output.ReportsDir = getEnvOrDefault("REPORTS_DIR", cfg.Output.ReportsDir)

	cfg.Database.URL = getEnvOrDefault("DATABASE_URL", cfg.Database.URL)
	cfg.Database.Driver = getEnvOrDefault("DATABASE_DRIVER", cfg.Database.Driver)

	cfg.Server.Port = getEnvOrDefault("PORT", cfg.Server.Port)
	cfg.Server.GinMode = getEnvOrDefault("GIN_MODE", cfg.Server.GinMode)
}

var validate = validator.New()

// Validate checks struct constraints; failures are CONFIG_INVALID
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.ConfigInvalid(strings.Join(msgs, "; "))
		}
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

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
