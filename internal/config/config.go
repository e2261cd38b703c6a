package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds application configuration
type Config struct {
	Port          string
	DBConn        string
	LogLevel      string
	JWTSecret     string
	JWTTTL        time.Duration
	EncryptionKey string
	CardCipher    string
	CardLuhn      bool

	AdminName     string
	AdminEmail    string
	AdminPassword string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	ExpiryReminderSpec string
	ExpiryReminderDays int
}

// MemoryDB selects the in-memory store instead of PostgreSQL
const MemoryDB = "memory"

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=bank sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		EncryptionKey: getEnv("ENCRYPTION_KEY", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"),
		CardCipher:    getEnv("CARD_CIPHER", "gcm"),

		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "noreply@bank.local"),

		ExpiryReminderSpec: getEnv("EXPIRY_REMINDER_SPEC", "0 9 * * *"),
	}

	var err error
	if cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.CardLuhn, err = strconv.ParseBool(getEnv("CARD_LUHN", "false")); err != nil {
		return nil, fmt.Errorf("invalid CARD_LUHN: %w", err)
	}
	if cfg.ExpiryReminderDays, err = strconv.Atoi(getEnv("EXPIRY_REMINDER_DAYS", "30")); err != nil {
		return nil, fmt.Errorf("invalid EXPIRY_REMINDER_DAYS: %w", err)
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

// LogrusLevel parses LogLevel, falling back to info
func (c *Config) LogrusLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// MailEnabled reports whether notification emails should be sent
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
