// Package config loads process configuration from, in increasing order of
// precedence: built-in defaults, an optional config file (any format viper
// understands), a .env file in the working directory, and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config is the resolved process configuration. Keys map to environment
// variables by upper-casing, e.g. history_limit -> HISTORY_LIMIT.
type Config struct {
	AppEnv   string `mapstructure:"app_env"`
	Provider string `mapstructure:"provider"`

	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIModel   string `mapstructure:"openai_model"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`

	HFAPIKey       string  `mapstructure:"hf_api_key"`
	HFModel        string  `mapstructure:"hf_model"`
	HFBaseURL      string  `mapstructure:"hf_base_url"`
	HFMaxNewTokens int     `mapstructure:"hf_max_new_tokens"`
	HFTemperature  float32 `mapstructure:"hf_temperature"`

	AnthropicAPIKey    string `mapstructure:"anthropic_api_key"`
	AnthropicModel     string `mapstructure:"anthropic_model"`
	AnthropicMaxTokens int    `mapstructure:"anthropic_max_tokens"`

	StoreBackend  string `mapstructure:"store_backend"`
	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     int    `mapstructure:"redis_port"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPassword string `mapstructure:"redis_password"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	SQLitePath    string `mapstructure:"sqlite_path"`

	SystemPrompt     string        `mapstructure:"system_prompt"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Temperature      float32       `mapstructure:"temperature"`
	ProviderTimeout  time.Duration `mapstructure:"provider_timeout"`
	BlockingPoolSize int           `mapstructure:"blocking_pool_size"`
	HTTPAddr         string        `mapstructure:"http_addr"`

	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	RelayLogDetail string `mapstructure:"relay_log_detail"`
}

var defaults = map[string]any{
	"app_env":  "local",
	"provider": "dummy",

	"openai_api_key":  "",
	"openai_model":    "gpt-4o-mini",
	"openai_base_url": "",

	"hf_api_key":        "",
	"hf_model":          "HuggingFaceH4/zephyr-7b-beta",
	"hf_base_url":       "https://api-inference.huggingface.co",
	"hf_max_new_tokens": 256,
	"hf_temperature":    0.7,

	"anthropic_api_key":    "",
	"anthropic_model":      "claude-3-5-haiku-latest",
	"anthropic_max_tokens": 1024,

	"store_backend":  StoreRedis,
	"redis_host":     "localhost",
	"redis_port":     6379,
	"redis_db":       0,
	"redis_password": "",
	"postgres_dsn":   "",
	"sqlite_path":    "chatrelay.db",

	"system_prompt":      "You are a helpful, concise assistant.",
	"history_limit":      5,
	"max_tokens":         0,
	"temperature":        0.0,
	"provider_timeout":   "0s",
	"blocking_pool_size": 16,
	"http_addr":          ":8000",

	"log_level":        "INFO",
	"log_format":       "text",
	"relay_log_detail": "standard",
}

// Load resolves the configuration. configFile may be empty. A missing .env
// file is not an error; a missing configFile is.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work regardless of environment.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreMemory, StoreRedis, StoreSQLite:
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	if c.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("MAX_TOKENS must not be negative, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("TEMPERATURE must be within [0, 2], got %g", c.Temperature))
	}
	if c.ProviderTimeout < 0 {
		errs = append(errs, fmt.Errorf("PROVIDER_TIMEOUT must not be negative, got %s", c.ProviderTimeout))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR must not be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
