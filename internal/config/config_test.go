package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullYAML = `
self:
  id: u-42
  name: Sanne
  avatar: https://cdn.buurtplein.nl/a/u-42.png

database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: buurt
  name: buurtchat_prod

chat:
  reply_delay_ms: 500
  reply_templates:
    - "Hoi! Ik bel je zo terug."

server:
  port: 9090
  session_idle_minutes: 5

notify:
  command: "notify-send 'Buurtchat' '{{.From}}'"
  slack:
    bot_token: xoxb-test
    channel_id: C0123
  discord:
    bot_token: discord-test
    channel_id: "998877"
  digest:
    enabled: true
    cron: "30 8 * * 1-5"
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Self.ID != "u-42" {
		t.Errorf("Self.ID = %q, want %q", cfg.Self.ID, "u-42")
	}
	if cfg.Self.Name != "Sanne" {
		t.Errorf("Self.Name = %q, want %q", cfg.Self.Name, "Sanne")
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverMySQL)
	}
	if cfg.Database.Host != "10.0.0.5" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "10.0.0.5")
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 3307)
	}
	if cfg.Database.User != "buurt" {
		t.Errorf("Database.User = %q, want %q", cfg.Database.User, "buurt")
	}
	if cfg.Database.Name != "buurtchat_prod" {
		t.Errorf("Database.Name = %q, want %q", cfg.Database.Name, "buurtchat_prod")
	}
	if cfg.Chat.ReplyDelayMS != 500 {
		t.Errorf("Chat.ReplyDelayMS = %d, want %d", cfg.Chat.ReplyDelayMS, 500)
	}
	if len(cfg.Chat.ReplyTemplates) != 1 {
		t.Fatalf("len(Chat.ReplyTemplates) = %d, want 1", len(cfg.Chat.ReplyTemplates))
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Server.SessionIdleMinutes != 5 {
		t.Errorf("Server.SessionIdleMinutes = %d, want %d", cfg.Server.SessionIdleMinutes, 5)
	}
	if !cfg.Notify.Digest.Enabled {
		t.Error("Notify.Digest.Enabled = false, want true")
	}
	if cfg.Notify.Digest.Cron != "30 8 * * 1-5" {
		t.Errorf("Notify.Digest.Cron = %q, want %q", cfg.Notify.Digest.Cron, "30 8 * * 1-5")
	}
	if cfg.Notify.Slack.ChannelID != "C0123" {
		t.Errorf("Notify.Slack.ChannelID = %q, want %q", cfg.Notify.Slack.ChannelID, "C0123")
	}
	if cfg.Notify.Discord.BotToken != "discord-test" {
		t.Errorf("Notify.Discord.BotToken = %q, want %q", cfg.Notify.Discord.BotToken, "discord-test")
	}
}

func TestParse_Empty_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Self.ID != "me" {
		t.Errorf("Self.ID = %q, want %q (default)", cfg.Self.ID, "me")
	}
	if cfg.Self.Name != "Ik" {
		t.Errorf("Self.Name = %q, want %q (default)", cfg.Self.Name, "Ik")
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want %q (default)", cfg.Database.Driver, DriverSQLite)
	}
	if cfg.Database.Path != "buurtchat.db" {
		t.Errorf("Database.Path = %q, want %q (default)", cfg.Database.Path, "buurtchat.db")
	}
	if cfg.Chat.ReplyDelayMS != 2000 {
		t.Errorf("Chat.ReplyDelayMS = %d, want %d (default)", cfg.Chat.ReplyDelayMS, 2000)
	}
	if len(cfg.Chat.ReplyTemplates) != len(DefaultReplyTemplates) {
		t.Errorf("len(Chat.ReplyTemplates) = %d, want %d (default)", len(cfg.Chat.ReplyTemplates), len(DefaultReplyTemplates))
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d (default)", cfg.Server.Port, 8080)
	}
	if cfg.Server.SessionIdleMinutes != 30 {
		t.Errorf("Server.SessionIdleMinutes = %d, want %d (default)", cfg.Server.SessionIdleMinutes, 30)
	}
	if cfg.Notify.Digest.Enabled {
		t.Error("Notify.Digest.Enabled = true, want false (default)")
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: mysql\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "127.0.0.1" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "127.0.0.1")
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 3306)
	}
	if cfg.Database.User != "root" {
		t.Errorf("Database.User = %q, want %q", cfg.Database.User, "root")
	}
	if cfg.Database.Name != "buurtchat" {
		t.Errorf("Database.Name = %q, want %q", cfg.Database.Name, "buurtchat")
	}
	if cfg.Database.Path != "" {
		t.Errorf("Database.Path = %q, want empty for mysql", cfg.Database.Path)
	}
}

func TestParse_DigestEnabled_DefaultCron(t *testing.T) {
	cfg, err := Parse([]byte("notify:\n  digest:\n    enabled: true\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Notify.Digest.Cron != "0 9 * * *" {
		t.Errorf("Notify.Digest.Cron = %q, want %q", cfg.Notify.Digest.Cron, "0 9 * * *")
	}
}

func TestParse_UnsupportedDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), `database.driver "postgres" is not supported`) {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParse_NegativeSessionIdle(t *testing.T) {
	_, err := Parse([]byte("server:\n  session_idle_minutes: -1\n"))
	if err == nil {
		t.Fatal("expected error for negative session idle timeout")
	}
	if !strings.Contains(err.Error(), "server.session_idle_minutes must not be negative") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParse_NegativeReplyDelay(t *testing.T) {
	_, err := Parse([]byte("chat:\n  reply_delay_ms: -5\n"))
	if err == nil {
		t.Fatal("expected error for negative reply delay")
	}
	if !strings.Contains(err.Error(), "chat.reply_delay_ms must not be negative") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParse_BadDigestCron(t *testing.T) {
	yaml := `
notify:
  digest:
    enabled: true
    cron: "every morning"
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for invalid cron")
	}
	if !strings.Contains(err.Error(), "notify.digest.cron") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "notify.digest.cron")
	}
}

func TestParse_ChannelWithoutID(t *testing.T) {
	yaml := `
notify:
  slack:
    bot_token: xoxb-test
  discord:
    bot_token: discord-test
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for bot tokens without channels")
	}
	for _, want := range []string{"notify.slack.channel_id", "notify.discord.channel_id"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %s", want, err.Error())
		}
	}
}

func TestParse_MultipleValidationErrors(t *testing.T) {
	yaml := `
database:
  driver: oracle
chat:
  reply_delay_ms: -1
  reply_templates: ["ok", "  "]
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"database.driver", "chat.reply_delay_ms", "chat.reply_templates[1] is empty"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q: %s", want, msg)
		}
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("self: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buurtchat.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Self.ID != "u-42" {
		t.Errorf("Self.ID = %q, want %q", cfg.Self.ID, "u-42")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/buurtchat.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: read")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
	}
}
