package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"clinicbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App          AppConfig          `yaml:"app"`
	Cal          CalConfig          `yaml:"cal"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Availability AvailabilityConfig `yaml:"availability"`
	EventTypes   []models.EventType `yaml:"event_types"`
	Backup       BackupConfig       `yaml:"backup"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Logging      LoggingConfig      `yaml:"logging"`
	API          APIConfig          `yaml:"api"`
	Google       GoogleConfig       `yaml:"google"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Exports      ExportConfig       `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type CalConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ScheduleConfig describes the clinic working day. All slot arithmetic
// happens in Timezone regardless of what callers or stored rows carry.
type ScheduleConfig struct {
	Timezone   string `yaml:"timezone"`
	WorkStart  string `yaml:"work_start"`
	WorkEnd    string `yaml:"work_end"`
	BreakStart string `yaml:"break_start"`
	BreakEnd   string `yaml:"break_end"`
}

// AvailabilityConfig selects which provider answers availability queries.
// "cal" is the production path; "local" is the legacy in-process engine.
type AvailabilityConfig struct {
	Source          string `yaml:"source"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type GoogleConfig struct {
	CredentialsFile       string `yaml:"credentials_file"`
	BookingsSpreadsheetID string `yaml:"bookings_spreadsheet_id"`
}

type TelegramConfig struct {
	BotToken string  `yaml:"bot_token"`
	ChatIDs  []int64 `yaml:"chat_ids"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment may already be populated.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before parsing so secrets stay out of YAML.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule timezone %q: %w", c.Schedule.Timezone, err)
	}

	for name, value := range map[string]string{
		"work_start":  c.Schedule.WorkStart,
		"work_end":    c.Schedule.WorkEnd,
		"break_start": c.Schedule.BreakStart,
		"break_end":   c.Schedule.BreakEnd,
	} {
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("schedule.%s must be HH:MM, got %q", name, value)
		}
	}

	switch c.Availability.Source {
	case "cal", "local":
	default:
		return fmt.Errorf("availability.source must be \"cal\" or \"local\", got %q", c.Availability.Source)
	}

	if c.Availability.Source == "cal" && c.Cal.APIKey == "" {
		return errors.New("cal.api_key is required when availability.source is \"cal\"")
	}

	return ValidateEventTypes(c.EventTypes)
}

func ValidateEventTypes(eventTypes []models.EventType) error {
	seen := make(map[int64]bool)
	for _, et := range eventTypes {
		if et.ID == 0 {
			return fmt.Errorf("event type %q has invalid ID 0", et.Name)
		}
		if et.DurationMinutes <= 0 {
			return fmt.Errorf("event type %d has invalid duration %d", et.ID, et.DurationMinutes)
		}
		if seen[et.ID] {
			return fmt.Errorf("duplicate event type ID found: %d", et.ID)
		}
		seen[et.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Cal.BaseURL == "" {
		c.Cal.BaseURL = "https://api.cal.com/v2"
	}
	if c.Cal.TimeoutSeconds == 0 {
		c.Cal.TimeoutSeconds = 10
	}

	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Asia/Kolkata"
	}
	if c.Schedule.WorkStart == "" {
		c.Schedule.WorkStart = "09:00"
	}
	if c.Schedule.WorkEnd == "" {
		c.Schedule.WorkEnd = "17:00"
	}
	if c.Schedule.BreakStart == "" {
		c.Schedule.BreakStart = "13:00"
	}
	if c.Schedule.BreakEnd == "" {
		c.Schedule.BreakEnd = "14:00"
	}

	if c.Availability.Source == "" {
		c.Availability.Source = "cal"
	}
	if c.Availability.CacheTTLSeconds == 0 {
		c.Availability.CacheTTLSeconds = 30
	}

	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Backup.IntervalHours == 0 {
		c.Backup.IntervalHours = 24
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 14
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
