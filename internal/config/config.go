package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete solaudit configuration.
// It is loaded once at startup and treated as read-only afterwards;
// the pipeline receives it explicitly instead of reading ambient state.
type Config struct {
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Scoring ScoringConfig `json:"scoring" mapstructure:"scoring"`
	Limits  LimitsConfig  `json:"limits" mapstructure:"limits"`
	Model   ModelConfig   `json:"model" mapstructure:"model"`
	Chains  ChainsConfig  `json:"chains" mapstructure:"chains"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// ScoringConfig contains severity weights and risk thresholds
type ScoringConfig struct {
	CriticalWeight int `json:"criticalWeight" mapstructure:"criticalWeight"`
	HighWeight     int `json:"highWeight" mapstructure:"highWeight"`
	MediumWeight   int `json:"mediumWeight" mapstructure:"mediumWeight"`
	LowWeight      int `json:"lowWeight" mapstructure:"lowWeight"`
	UnknownWeight  int `json:"unknownWeight" mapstructure:"unknownWeight"`

	// HighThreshold and MediumThreshold drive the risk-level step function.
	// The Critical/High boundary at score 25 is fixed and not configurable.
	HighThreshold   int `json:"highThreshold" mapstructure:"highThreshold"`
	MediumThreshold int `json:"mediumThreshold" mapstructure:"mediumThreshold"`
}

// LimitsConfig contains input validation limits
type LimitsConfig struct {
	MaxSourceBytes int `json:"maxSourceBytes" mapstructure:"maxSourceBytes"`
}

// ModelConfig contains model analyzer configuration
type ModelConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"`
	Model     string `json:"model" mapstructure:"model"`
	APIKey    string `json:"-" mapstructure:"apiKey"`
	TimeoutMs int    `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// ChainsConfig contains chain registry configuration
type ChainsConfig struct {
	// File is an optional YAML file overriding the built-in chain registry
	File string `json:"file" mapstructure:"file"`
}

// StorageConfig contains persistence configuration
type StorageConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Scoring: ScoringConfig{
			CriticalWeight:  40,
			HighWeight:      25,
			MediumWeight:    15,
			LowWeight:       5,
			UnknownWeight:   10,
			HighThreshold:   80,
			MediumThreshold: 50,
		},
		Limits: LimitsConfig{
			MaxSourceBytes: 1048576,
		},
		Model: ModelConfig{
			Provider:  "gemini",
			Model:     "gemini-1.5-flash",
			TimeoutMs: 60000,
		},
		Storage: StorageConfig{
			Path: ".solaudit/solaudit.db",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from the given file (JSON), falling back to
// defaults when the file is absent. Environment variables with the SOLAUDIT_
// prefix override file values (for example SOLAUDIT_MODEL_APIKEY).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("scoring.criticalWeight", defaults.Scoring.CriticalWeight)
	v.SetDefault("scoring.highWeight", defaults.Scoring.HighWeight)
	v.SetDefault("scoring.mediumWeight", defaults.Scoring.MediumWeight)
	v.SetDefault("scoring.lowWeight", defaults.Scoring.LowWeight)
	v.SetDefault("scoring.unknownWeight", defaults.Scoring.UnknownWeight)
	v.SetDefault("scoring.highThreshold", defaults.Scoring.HighThreshold)
	v.SetDefault("scoring.mediumThreshold", defaults.Scoring.MediumThreshold)
	v.SetDefault("limits.maxSourceBytes", defaults.Limits.MaxSourceBytes)
	v.SetDefault("model.provider", defaults.Model.Provider)
	v.SetDefault("model.model", defaults.Model.Model)
	// AutomaticEnv only surfaces keys viper already knows; apiKey has no
	// meaningful default but must stay visible for SOLAUDIT_MODEL_APIKEY.
	v.SetDefault("model.apiKey", "")
	v.SetDefault("model.timeoutMs", defaults.Model.TimeoutMs)
	v.SetDefault("chains.file", "")
	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetEnvPrefix("SOLAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "port must be between 1 and 65535"}
	}
	if c.Limits.MaxSourceBytes <= 0 {
		return &ConfigError{Field: "limits.maxSourceBytes", Message: "must be positive"}
	}
	if c.Scoring.MediumThreshold >= c.Scoring.HighThreshold {
		return &ConfigError{Field: "scoring.mediumThreshold", Message: "must be below highThreshold"}
	}
	if c.Scoring.MediumThreshold <= 25 {
		return &ConfigError{Field: "scoring.mediumThreshold", Message: "must be above the fixed critical boundary of 25"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
