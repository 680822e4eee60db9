package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

// Config holds all configuration for the TAIFEX aggregator binaries.
type Config struct {
	// Document store
	MongoURI string `mapstructure:"mongodb_uri"`
	MongoDB  string `mapstructure:"mongodb_db"`

	// Exchange endpoint (configurable for testing)
	TaifexBaseURL string `mapstructure:"taifex_base_url"`

	// LINE webhook credentials (botserver only)
	LineChannelSecret string `mapstructure:"line_channel_secret"`
	LineChannelToken  string `mapstructure:"line_channel_access_token"`

	// botserver listen address
	ListenAddr string `mapstructure:"listen_addr"`

	// Comma-separated non-trading weekdays, YYYY-MM-DD
	Holidays string `mapstructure:"holidays"`
}

// Load reads configuration from environment variables and optional config file.
// Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - MONGODB_URI (required)
//   - MONGODB_DB (optional, defaults to "taifex")
//   - TAIFEX_BASE_URL (optional, defaults to production)
//   - LINE_CHANNEL_SECRET, LINE_CHANNEL_ACCESS_TOKEN (required by botserver,
//     validated there because the crawler never needs them)
//   - LISTEN_ADDR (optional, defaults to ":8000")
//   - HOLIDAYS (optional, comma-separated YYYY-MM-DD list)
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("mongodb_db", "taifex")
	v.SetDefault("taifex_base_url", "https://www.taifex.com.tw")
	v.SetDefault("listen_addr", ":8000")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.taifex-aggregator")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Bind environment variables
	v.BindEnv("mongodb_uri", "MONGODB_URI")
	v.BindEnv("mongodb_db", "MONGODB_DB")
	v.BindEnv("taifex_base_url", "TAIFEX_BASE_URL")
	v.BindEnv("line_channel_secret", "LINE_CHANNEL_SECRET")
	v.BindEnv("line_channel_access_token", "LINE_CHANNEL_ACCESS_TOKEN")
	v.BindEnv("listen_addr", "LISTEN_ADDR")
	v.BindEnv("holidays", "HOLIDAYS")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var missing []string
	if config.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return config, nil
}

// HolidayDates parses the configured holiday list into canonical dates.
func (c *Config) HolidayDates() ([]time.Time, error) {
	if strings.TrimSpace(c.Holidays) == "" {
		return nil, nil
	}

	var dates []time.Time
	for _, part := range strings.Split(c.Holidays, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", part)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", part, err)
		}
		dates = append(dates, model.DateOf(t))
	}
	return dates, nil
}

// RequireLineCredentials validates the webhook credential pair. The crawler
// never calls this; botserver does at startup.
func (c *Config) RequireLineCredentials() error {
	var missing []string
	if c.LineChannelSecret == "" {
		missing = append(missing, "LINE_CHANNEL_SECRET")
	}
	if c.LineChannelToken == "" {
		missing = append(missing, "LINE_CHANNEL_ACCESS_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
