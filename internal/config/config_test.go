package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, "gcm", cfg.CardCipher)
	require.False(t, cfg.CardLuhn)
	require.Equal(t, 30, cfg.ExpiryReminderDays)
	require.False(t, cfg.MailEnabled())
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_CONN", MemoryDB)
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("CARD_LUHN", "true")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, MemoryDB, cfg.DBConn)
	require.Equal(t, 15*time.Minute, cfg.JWTTTL)
	require.True(t, cfg.CardLuhn)
	require.True(t, cfg.MailEnabled())
}

func TestLogrusLevel(t *testing.T) {
	require.Equal(t, logrus.DebugLevel, (&Config{LogLevel: "DEBUG"}).LogrusLevel())
	require.Equal(t, logrus.WarnLevel, (&Config{LogLevel: "warn"}).LogrusLevel())
	require.Equal(t, logrus.InfoLevel, (&Config{LogLevel: "loud"}).LogrusLevel())

	t.Setenv("LOG_LEVEL", "error")
	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, logrus.ErrorLevel, cfg.LogrusLevel())
}

func TestNewConfig_Errors(t *testing.T) {
	cases := map[string][2]string{
		"empty db":        {"DB_CONN", ""},
		"empty jwt":       {"JWT_SECRET", ""},
		"empty key":       {"ENCRYPTION_KEY", ""},
		"bad ttl":         {"JWT_TTL", "soon"},
		"bad luhn":        {"CARD_LUHN", "maybe"},
		"bad days":        {"EXPIRY_REMINDER_DAYS", "x"},
		"half admin pair": {"ADMIN_EMAIL", "admin@example.com"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := NewConfig()
			require.Error(t, err)
		})
	}
}
