// Package config provides YAML-based configuration loading for buurtchat.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DefaultReplyTemplates are the canned counterpart replies used when the
// config does not provide its own.
var DefaultReplyTemplates = []string{
	"Bedankt voor je bericht! Ik kom er zo snel mogelijk bij je op terug.",
	"Goed om van je te horen! Ik laat het je vandaag nog weten.",
	"Dank je wel! Zullen we morgen even bellen?",
}

// Config is the top-level buurtchat configuration, loaded from buurtchat.yaml.
type Config struct {
	Self     SelfConfig     `yaml:"self"`
	Database DatabaseConfig `yaml:"database"`
	Chat     ChatConfig     `yaml:"chat"`
	Server   ServerConfig   `yaml:"server"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// SelfConfig identifies the signed-in user. Messages from any other sender
// count as counterpart messages.
type SelfConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Avatar string `yaml:"avatar"`
}

// DatabaseConfig selects and addresses the persistence backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" (default) or "mysql"
	Path   string `yaml:"path"`   // sqlite file, ":memory:" for in-session only
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Name   string `yaml:"name"`
}

// ChatConfig tunes the simulated counterpart replies.
type ChatConfig struct {
	ReplyDelayMS   int      `yaml:"reply_delay_ms"`
	ReplyTemplates []string `yaml:"reply_templates"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
	// SessionIdleMinutes closes view sessions not used for this long.
	SessionIdleMinutes int `yaml:"session_idle_minutes"`
}

// NotifyConfig controls message notifications and the unread digest.
type NotifyConfig struct {
	Command string        `yaml:"command"`
	Slack   ChannelConfig `yaml:"slack"`
	Discord ChannelConfig `yaml:"discord"`
	Digest  DigestConfig  `yaml:"digest"`
}

// ChannelConfig posts notifications to a chat channel with a bot token.
// Leaving BotToken empty disables the channel.
type ChannelConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DigestConfig schedules the unread digest with a 5-field cron expression.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated Config with every default applied, used when
// no config file exists yet.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Self.ID == "" {
		c.Self.ID = "me"
	}
	if c.Self.Name == "" {
		c.Self.Name = "Ik"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			c.Database.Path = "buurtchat.db"
		}
	case DriverMySQL:
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "buurtchat"
		}
	}
	if c.Chat.ReplyDelayMS == 0 {
		c.Chat.ReplyDelayMS = 2000
	}
	if len(c.Chat.ReplyTemplates) == 0 {
		c.Chat.ReplyTemplates = append([]string(nil), DefaultReplyTemplates...)
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.SessionIdleMinutes == 0 {
		c.Server.SessionIdleMinutes = 30
	}
	if c.Notify.Digest.Enabled && c.Notify.Digest.Cron == "" {
		c.Notify.Digest.Cron = "0 9 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Database.Driver != DriverSQLite && c.Database.Driver != DriverMySQL {
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Chat.ReplyDelayMS < 0 {
		errs = append(errs, "chat.reply_delay_ms must not be negative")
	}
	for i, tmpl := range c.Chat.ReplyTemplates {
		if strings.TrimSpace(tmpl) == "" {
			errs = append(errs, fmt.Sprintf("chat.reply_templates[%d] is empty", i))
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.SessionIdleMinutes < 0 {
		errs = append(errs, "server.session_idle_minutes must not be negative")
	}
	if c.Notify.Slack.BotToken != "" && c.Notify.Slack.ChannelID == "" {
		errs = append(errs, "notify.slack.channel_id is required with a bot token")
	}
	if c.Notify.Discord.BotToken != "" && c.Notify.Discord.ChannelID == "" {
		errs = append(errs, "notify.discord.channel_id is required with a bot token")
	}
	if c.Notify.Digest.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(c.Notify.Digest.Cron); err != nil {
			errs = append(errs, fmt.Sprintf("notify.digest.cron %q: %v", c.Notify.Digest.Cron, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
