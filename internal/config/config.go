package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ServerPort string

	TelegramToken  string
	WebhookBaseURL string
	WebhookSecret  string
	PollTimeout    time.Duration

	SheetsID        string
	CredentialsFile string
	MasterSheet     string
	SheetCacheTTL   time.Duration
	RedisURL        string

	DatabaseURL string

	SessionTimeout  time.Duration
	AnswerPacing    time.Duration
	DiagnosisPacing time.Duration
	CommandRefresh  time.Duration

	AdminAPIKey   string
	SnowflakeNode int64
}

// Load reads configuration from the environment. Outside production a .env
// file is loaded first if present.
func Load() (*Config, error) {
	if getEnv("APP_ENV", "development") != "production" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		ServerPort:      getEnv("SERVER_PORT", getEnv("PORT", "10000")),
		TelegramToken:   getEnv("TELEGRAM_TOKEN", ""),
		WebhookBaseURL:  getEnv("WEBHOOK_BASE_URL", ""),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		SheetsID:        getEnv("GOOGLE_SHEETS_ID", ""),
		CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		MasterSheet:     getEnv("MASTER_SHEET", "bot_master_list"),
		RedisURL:        getEnv("REDIS_URL", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		AdminAPIKey:     getEnv("ADMIN_API_KEY", ""),
	}

	var err error
	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"POLL_TIMEOUT", "30s", &cfg.PollTimeout},
		{"SHEET_CACHE_TTL", "300s", &cfg.SheetCacheTTL},
		{"SESSION_TIMEOUT", "300s", &cfg.SessionTimeout},
		{"ANSWER_PACING", "2s", &cfg.AnswerPacing},
		{"DIAGNOSIS_PACING", "500ms", &cfg.DiagnosisPacing},
		{"COMMAND_REFRESH", "10m", &cfg.CommandRefresh},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(getEnv(d.key, d.fallback)); err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
	}

	if cfg.SnowflakeNode, err = strconv.ParseInt(getEnv("SNOWFLAKE_NODE", "1"), 10, 64); err != nil {
		return nil, fmt.Errorf("SNOWFLAKE_NODE: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the settings the bot cannot run without.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.SheetsID == "" {
		return fmt.Errorf("GOOGLE_SHEETS_ID is required")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	return nil
}

// parseDuration accepts Go duration strings ("90s", "5m") and bare seconds ("300").
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
