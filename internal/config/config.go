package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	// Reserved administrator address, always resolved to the admin role
	AdminEmail string
	// Route the SPA uses for sign-in; guard redirects point here
	EntryRoute string
	// Base URL used in certificate verification links
	PublicBaseURL string
	SessionSecret string
	SessionTTL    time.Duration

	Casdoor  CasdoorConfig
	Kafka    KafkaConfig
	OSS      OSSConfig
	SendGrid SendGridConfig
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
}

// Enabled reports whether events should go through Kafka instead of the in-process channel
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Prefix          string
	PublicBaseURL   string
}

func (o OSSConfig) Enabled() bool {
	return o.Endpoint != "" && o.AccessKeyID != "" && o.Bucket != ""
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// LoadConfig loads configuration from .env (if present) and the environment
func LoadConfig() (*Config, error) {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		AdminEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		EntryRoute:    getEnv("ENTRY_ROUTE", "/login"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		SessionSecret: getEnv("SESSION_SECRET", "lms-dev-session-secret"),
		SessionTTL:    getDuration("SESSION_TTL", 5*time.Minute),
		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			ConsumerGroup: os.Getenv("KAFKA_CONSUMER_GROUP"),
		},
		OSS: OSSConfig{
			Endpoint:        os.Getenv("OSS_ENDPOINT"),
			AccessKeyID:     os.Getenv("OSS_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("OSS_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("OSS_BUCKET"),
			Prefix:          getEnv("OSS_PREFIX", "lms"),
			PublicBaseURL:   os.Getenv("OSS_PUBLIC_BASE_URL"),
		},
		SendGrid: SendGridConfig{
			APIKey:    os.Getenv("SENDGRID_API_KEY"),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", "no-reply@lms.local"),
			FromName:  getEnv("SENDGRID_FROM_NAME", "LMS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Casdoor.Endpoint == "" || c.Casdoor.ClientID == "" {
		return fmt.Errorf("CASDOOR_ENDPOINT and CASDOOR_CLIENT_ID are required")
	}
	if !strings.HasPrefix(c.EntryRoute, "/") {
		return fmt.Errorf("ENTRY_ROUTE must be an absolute path, got %q", c.EntryRoute)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
