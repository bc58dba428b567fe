package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Bulk   BulkConfig   `yaml:"bulk" mapstructure:"bulk"`
}

// StoreConfig configures the workspace database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the editor API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RatePerMinute  int      `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// IngestConfig configures spreadsheet import.
type IngestConfig struct {
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`
	HeaderRow int    `yaml:"header_row" mapstructure:"header_row"`
}

// BulkConfig configures bulk edits.
type BulkConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "invoice.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_minute", 120)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.timeout_secs", 30)
	v.SetDefault("ingest.header_row", 0)
	v.SetDefault("bulk.workers", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is "store" for commands
// that only touch the workspace, "serve" for the API server.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "store", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Bulk.Workers < 1 || c.Bulk.Workers > 64 {
		problems = append(problems, "bulk.workers must be between 1 and 64")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.RatePerMinute < 0 {
			problems = append(problems, "server.rate_per_minute must be >= 0")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
