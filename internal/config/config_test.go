package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://lms@localhost/lms")
	t.Setenv("CASDOOR_ENDPOINT", "http://casdoor.local")
	t.Setenv("CASDOOR_CLIENT_ID", "client")
	t.Setenv("ADMIN_EMAIL", " Admin@Example.com ")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_TTL", "90")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "admin@example.com", cfg.AdminEmail)
	assert.Equal(t, "/login", cfg.EntryRoute)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.OSS.Enabled())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.SessionTTL)
}

func TestLoadConfig_MissingDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CASDOOR_ENDPOINT", "http://casdoor.local")
	t.Setenv("CASDOOR_CLIENT_ID", "client")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate_EntryRoute(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://x",
		EntryRoute:  "login",
		Casdoor:     CasdoorConfig{Endpoint: "e", ClientID: "c"},
	}
	assert.Error(t, cfg.Validate())

	cfg.EntryRoute = "/login"
	assert.NoError(t, cfg.Validate())
}
