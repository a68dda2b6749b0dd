package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Reminder ReminderConfig `yaml:"reminder"`
	Media    MediaConfig    `yaml:"media"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// TelegramConfig contains bot transport settings
type TelegramConfig struct {
	Token       string  `yaml:"token"`
	ReviewerIDs []int64 `yaml:"reviewer_ids"`
	Mode        string  `yaml:"mode"`        // "polling" or "webhook"
	WebhookURL  string  `yaml:"webhook_url"` // public URL, webhook mode only
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	Type string `yaml:"type"` // "sheets" or "postgres"
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// SheetsConfig contains Google Sheets store settings
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsJSON string `yaml:"credentials_json"` // usually injected via env
}

// ReminderConfig contains deferred-nudge settings
type ReminderConfig struct {
	DelaySeconds  int    `yaml:"delay_seconds"`
	SweepSchedule string `yaml:"sweep_schedule"`
}

// MediaConfig holds optional Telegram file ids attached to prompts
type MediaConfig struct {
	AmountsFileID string `yaml:"amounts_file_id"`
	AccountFileID string `yaml:"account_file_id"`
}

// ServerConfig contains the HTTP listener used in webhook mode and for the
// health endpoint
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Telegram
	if val := os.Getenv("TELEGRAM_TOKEN"); val != "" {
		c.Telegram.Token = val
	}
	if val := os.Getenv("REVIEWER_IDS"); val != "" {
		c.Telegram.ReviewerIDs = parseIDList(val)
	}
	if val := os.Getenv("TELEGRAM_MODE"); val != "" {
		c.Telegram.Mode = val
	}
	if val := os.Getenv("TELEGRAM_WEBHOOK_URL"); val != "" {
		c.Telegram.WebhookURL = val
	}

	// Store
	if val := os.Getenv("STORE_TYPE"); val != "" {
		c.Store.Type = val
	}
	if val := os.Getenv("SPREADSHEET_ID"); val != "" {
		c.Sheets.SpreadsheetID = val
	}
	if val := os.Getenv("GOOGLE_SHEETS_CREDENTIALS"); val != "" {
		c.Sheets.CredentialsJSON = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Media
	if val := os.Getenv("FILE_ID_AMOUNTS"); val != "" {
		c.Media.AmountsFileID = val
	}
	if val := os.Getenv("FILE_ID_ACCOUNT"); val != "" {
		c.Media.AccountFileID = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate checks if the configuration is valid and applies defaults
func (c *Config) Validate() error {
	// Telegram validation
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if len(c.Telegram.ReviewerIDs) == 0 {
		return fmt.Errorf("at least one reviewer id is required")
	}
	if c.Telegram.Mode == "" {
		c.Telegram.Mode = "polling"
	}
	if c.Telegram.Mode != "polling" && c.Telegram.Mode != "webhook" {
		return fmt.Errorf("invalid telegram mode: %s", c.Telegram.Mode)
	}
	if c.Telegram.Mode == "webhook" && c.Telegram.WebhookURL == "" {
		return fmt.Errorf("webhook mode requires a webhook url")
	}

	// Store validation
	if c.Store.Type == "" {
		c.Store.Type = "sheets"
	}
	switch c.Store.Type {
	case "sheets":
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("spreadsheet id is required for the sheets store")
		}
		if c.Sheets.CredentialsJSON == "" {
			return fmt.Errorf("google sheets credentials are required for the sheets store")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}

	// Reminder defaults
	if c.Reminder.DelaySeconds == 0 {
		c.Reminder.DelaySeconds = 600
	}
	if c.Reminder.SweepSchedule == "" {
		c.Reminder.SweepSchedule = "@every 2m"
	}

	// Server defaults (webhook/health listener)
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listener address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func parseIDList(val string) []int64 {
	var ids []int64
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
