// Package config loads process settings for cmd/authcore from environment
// variables. A .env file, when present, is read by the caller through
// godotenv before Load.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skulipro/authcore"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string

	RedisAddr   string
	RedisPrefix string
	SQLiteDSN   string

	SessionSigningKey string
	ActionSigningKey  string
	OTPPepper         string
	OTPDailyCap       int
	ExposeOTP         bool
	LinkBaseURL       string
	ProductionMode    bool
	OperationTimeout  time.Duration
	ShutdownTimeout   time.Duration
	AuditEnabled      bool

	SNSRegion    string
	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	AllowedOrigins []string // CORS allowed origins
	BurstPerSecond float64
	BurstSize      int
}

// Load reads all configuration from environment variables.
func Load() *Config {
	appEnv := getEnv("APP_ENV", "development")
	return &Config{
		AppPort:   getEnv("APP_PORT", "8080"),
		AppEnv:    appEnv,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPrefix: getEnv("REDIS_RATE_PREFIX", "rl"),
		SQLiteDSN:   getEnv("SQLITE_DSN", "file:authcore.db?_pragma=busy_timeout(5000)"),

		SessionSigningKey: getEnv("SESSION_SIGNING_KEY", ""),
		ActionSigningKey:  getEnv("ACTION_SIGNING_KEY", ""),
		OTPPepper:         getEnv("OTP_PEPPER", ""),
		OTPDailyCap:       getEnvInt("OTP_DAILY_CAP", 3),
		ExposeOTP:         getEnvBool("EXPOSE_OTP", false),
		LinkBaseURL:       getEnv("LINK_BASE_URL", "http://localhost:5173"),
		ProductionMode:    getEnvBool("PRODUCTION_MODE", appEnv == "production"),
		OperationTimeout:  getEnvDuration("OPERATION_TIMEOUT", 3*time.Second),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		AuditEnabled:      getEnvBool("AUDIT_ENABLED", true),

		SNSRegion:    getEnv("SNS_REGION", ""),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		BurstPerSecond: getEnvFloat("BURST_PER_SECOND", 20),
		BurstSize:      getEnvInt("BURST_SIZE", 40),
	}
}

// Engine maps the process settings onto an engine configuration. Anything
// not exposed through the environment keeps its default.
func (c *Config) Engine() authcore.Config {
	cfg := authcore.DefaultConfig()
	cfg.ProductionMode = c.ProductionMode
	cfg.RateLimit.Prefix = c.RedisPrefix
	cfg.Session.PrivateKey = []byte(c.SessionSigningKey)
	cfg.Action.PrivateKey = []byte(c.ActionSigningKey)
	cfg.Action.LinkBaseURL = c.LinkBaseURL
	cfg.OTP.DailyCap = c.OTPDailyCap
	cfg.OTP.ExposeCodeInResponse = c.ExposeOTP
	if c.OTPPepper != "" {
		cfg.OTP.Pepper = []byte(c.OTPPepper)
	}
	cfg.Timeouts.Operation = c.OperationTimeout
	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
