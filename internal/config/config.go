// Package config manages application configuration from defaults, config.yaml,
// and BOT_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration for all components of the bot.
// It is constructed once at startup and passed by reference into constructors.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Offer     OfferConfig     `mapstructure:"offer"`
	Export    ExportConfig    `mapstructure:"export"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds bot credentials, the admin allow-list, and every
// user-visible message string.
type TelegramConfig struct {
	Token    string   `mapstructure:"token"     validate:"required"`
	AdminIDs []int64  `mapstructure:"admin_ids"`
	Messages Messages `mapstructure:"messages"`
}

// Messages contains all fixed user-facing texts. Any of them can be
// overridden via config.yaml or BOT_TELEGRAM_MESSAGES_* variables.
type Messages struct {
	Welcome          string `mapstructure:"welcome"`
	ChooseOption     string `mapstructure:"choose_option"`
	CarInterest      string `mapstructure:"car_interest"`
	InterestLogged   string `mapstructure:"interest_logged"`
	RegionPrompt     string `mapstructure:"region_prompt"`
	RegionAnalyzing  string `mapstructure:"region_analyzing"`
	RegionFailed     string `mapstructure:"region_failed"`
	OfferAlreadySent string `mapstructure:"offer_already_sent"`
	OfferCaption     string `mapstructure:"offer_caption"`
	OfferConfirmed   string `mapstructure:"offer_confirmed"`
	OfferFailed      string `mapstructure:"offer_failed"`
	ExportMenu       string `mapstructure:"export_menu"`
	ExportRunning    string `mapstructure:"export_running"`
	ExportCaption    string `mapstructure:"export_caption"`
	ExportFailed     string `mapstructure:"export_failed"`
	NotAuthorized    string `mapstructure:"not_authorized"`
	GeneralError     string `mapstructure:"general_error"`
}

// GeminiConfig configures the region analysis AI client.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"             validate:"required"`
	Model             string        `mapstructure:"model"               validate:"required"`
	Temperature       float32       `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxTokens         int32         `mapstructure:"max_tokens"          validate:"min=1"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=10m"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=0"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// OfferConfig configures commercial offer generation.
type OfferConfig struct {
	OutputDir string `mapstructure:"output_dir" validate:"required"`
}

// ExportConfig configures analytics exports.
type ExportConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// CacheConfig configures the optional Redis hot cache for region analyses.
// The cache is disabled when Addr is empty.
type CacheConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl" validate:"min=0"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// SchedulerConfig holds cron-style scheduled task definitions keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a single scheduled task with its cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// IsAdmin reports whether the user id is on the admin allow-list.
func (c *TelegramConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file
// 3. BOT_* environment variables
func Load() (*Config, error) {
	setDefaults()

	if err := readConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// readConfigFile initializes viper and reads the optional config file.
func readConfigFile() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Missing config file is fine, defaults and env cover everything.
	}
	return nil
}
