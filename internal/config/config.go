// Package config provides configuration loading and defaults for the
// grimoire-mcp server.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds MCP HTTP transport settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// DiscordConfig holds Discord bot credentials and guild targeting.
type DiscordConfig struct {
	Token         string `yaml:"token"`
	GuildID       string `yaml:"guild_id"`
	CommandPrefix string `yaml:"command_prefix"`
}

// CatalogConfig controls the card catalog HTTP client.
type CatalogConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSec     int    `yaml:"timeout_sec"`
	RetryMax       int    `yaml:"retry_max"`
	RetryWaitMinMS int    `yaml:"retry_wait_min_ms"`
	RetryWaitMaxMS int    `yaml:"retry_wait_max_ms"`
}

// Timeout returns the per-request timeout.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// RetryWait returns the minimum and maximum backoff between retries.
func (c CatalogConfig) RetryWait() (minWait, maxWait time.Duration) {
	return time.Duration(c.RetryWaitMinMS) * time.Millisecond,
		time.Duration(c.RetryWaitMaxMS) * time.Millisecond
}

// PricingConfig controls the Card Kingdom price list used by the price
// command and tool.
type PricingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	RefreshMin int    `yaml:"refresh_min"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RefreshInterval returns how long a downloaded price list is kept.
func (p PricingConfig) RefreshInterval() time.Duration {
	return time.Duration(p.RefreshMin) * time.Minute
}

// Timeout returns the price list download timeout.
func (p PricingConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// MentionsConfig controls the per-channel mention history.
type MentionsConfig struct {
	HistorySize int `yaml:"history_size"`
	// StatePath is where the history is persisted across restarts. Empty
	// keeps it in memory only.
	StatePath string `yaml:"state_path"`
}

// InlineConfig controls inline <<card>> reference handling.
type InlineConfig struct {
	MaxReferences int `yaml:"max_references"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel parses Level. An empty level is info.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(l.Level) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level %q is not a valid level", l.Level)
	}
	return level, nil
}

// Config is the top-level configuration structure for the grimoire-mcp server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Discord  DiscordConfig  `yaml:"discord"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Mentions MentionsConfig `yaml:"mentions"`
	Inline   InlineConfig   `yaml:"inline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoadConfig reads a YAML configuration file from path. Keys absent from the
// file keep their DefaultConfig values. On error, nil is returned for the
// config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with default values. Each call
// returns a distinct instance.
//
// Defaults:
//   - Server.Port = 8080
//   - Discord.CommandPrefix = "!"
//   - Catalog.BaseURL = "https://api.magicthegathering.io/v1"
//   - Catalog.TimeoutSec = 15, RetryMax = 3, retry wait 1000-10000 ms
//   - Pricing.Enabled = true, URL = "https://api.cardkingdom.com/api/pricelist",
//     RefreshMin = 360, TimeoutSec = 60
//   - Mentions.HistorySize = 1000
//   - Inline.MaxReferences = 5
//   - Logging.Level = "info"
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Discord: DiscordConfig{
			CommandPrefix: "!",
		},
		Catalog: CatalogConfig{
			BaseURL:        "https://api.magicthegathering.io/v1",
			TimeoutSec:     15,
			RetryMax:       3,
			RetryWaitMinMS: 1000,
			RetryWaitMaxMS: 10000,
		},
		Pricing: PricingConfig{
			Enabled:    true,
			URL:        "https://api.cardkingdom.com/api/pricelist",
			RefreshMin: 360,
			TimeoutSec: 60,
		},
		Mentions: MentionsConfig{
			HistorySize: 1000,
		},
		Inline: InlineConfig{
			MaxReferences: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Only non-empty environment variable values override existing config values.
//
// Recognized variables:
//   - GRIMOIRE_DISCORD_TOKEN -> cfg.Discord.Token (BOT_TOKEN is read when unset)
//   - GRIMOIRE_DISCORD_GUILD_ID -> cfg.Discord.GuildID
//   - GRIMOIRE_AUTH_TOKEN -> cfg.Server.AuthToken
//   - GRIMOIRE_CATALOG_URL -> cfg.Catalog.BaseURL
//   - GRIMOIRE_PRICING_URL -> cfg.Pricing.URL
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GRIMOIRE_DISCORD_TOKEN"); token != "" {
		cfg.Discord.Token = token
	} else if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.Discord.Token = token
	}
	if guildID := os.Getenv("GRIMOIRE_DISCORD_GUILD_ID"); guildID != "" {
		cfg.Discord.GuildID = guildID
	}
	if authToken := os.Getenv("GRIMOIRE_AUTH_TOKEN"); authToken != "" {
		cfg.Server.AuthToken = authToken
	}
	if baseURL := os.Getenv("GRIMOIRE_CATALOG_URL"); baseURL != "" {
		cfg.Catalog.BaseURL = baseURL
	}
	if pricingURL := os.Getenv("GRIMOIRE_PRICING_URL"); pricingURL != "" {
		cfg.Pricing.URL = pricingURL
	}
}

// Validate reports every problem that would keep the server from starting.
func (c *Config) Validate() error {
	var errs []error
	if c.Discord.Token == "" {
		errs = append(errs, errors.New("discord.token is required"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Discord.CommandPrefix) == "" {
		errs = append(errs, errors.New("discord.command_prefix must not be blank"))
	}
	if c.Catalog.BaseURL == "" {
		errs = append(errs, errors.New("catalog.base_url is required"))
	}
	if c.Catalog.TimeoutSec <= 0 {
		errs = append(errs, errors.New("catalog.timeout_sec must be positive"))
	}
	if c.Catalog.RetryMax < 0 {
		errs = append(errs, errors.New("catalog.retry_max must not be negative"))
	}
	if c.Catalog.RetryWaitMinMS < 0 || c.Catalog.RetryWaitMaxMS < c.Catalog.RetryWaitMinMS {
		errs = append(errs, errors.New("catalog retry wait bounds are invalid"))
	}
	if c.Pricing.Enabled {
		if c.Pricing.URL == "" {
			errs = append(errs, errors.New("pricing.url is required when pricing is enabled"))
		}
		if c.Pricing.RefreshMin <= 0 {
			errs = append(errs, errors.New("pricing.refresh_min must be positive"))
		}
		if c.Pricing.TimeoutSec <= 0 {
			errs = append(errs, errors.New("pricing.timeout_sec must be positive"))
		}
	}
	if c.Mentions.HistorySize <= 0 {
		errs = append(errs, errors.New("mentions.history_size must be positive"))
	}
	if c.Inline.MaxReferences < 0 {
		errs = append(errs, errors.New("inline.max_references must not be negative"))
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}
