package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultWebhookBaseURL is used when WEBHOOK_BASE_URL is unset
const DefaultWebhookBaseURL = "http://localhost:8080/api/v1"

type Config struct {
	Port    string
	GinMode string

	LogLevel string
	LogPath  string

	SessionTTL    time.Duration
	TemplatesFile string

	// WebhookBaseURL is the public base the voice platform calls back, e.g. https://example.ngrok.app/api/v1
	WebhookBaseURL string
	VoiceAPIURL    string
	VoiceAPIKey    string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Warnings collects problems found while loading, logged once a logger exists
	Warnings []string
}

func LoadConfig() *Config {
	var warnings []string
	if err := godotenv.Load(); err != nil {
		warnings = append(warnings, "No .env file loaded, using process environment")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPath:        getEnv("LOG_PATH", ""),
		TemplatesFile:  getEnv("TEMPLATES_FILE", ""),
		WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", DefaultWebhookBaseURL),
		VoiceAPIURL:    getEnv("VOICE_API_URL", "https://api.elevenlabs.io/v1"),
		VoiceAPIKey:    getEnv("VOICE_API_KEY", ""),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		SMTPFrom:       getEnv("SMTP_FROM", ""),
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil || ttl < 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid SESSION_TTL %q, using 24h", os.Getenv("SESSION_TTL")))
		ttl = 24 * time.Hour
	}
	cfg.SessionTTL = ttl

	port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil || port <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid SMTP_PORT %q, using 587", os.Getenv("SMTP_PORT")))
		port = 587
	}
	cfg.SMTPPort = port

	cfg.Warnings = warnings
	return cfg
}

// SMTPEnabled reports whether outgoing email is configured
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// ToolRegistrationEnabled reports whether templates should be mirrored as voice platform tools
func (c *Config) ToolRegistrationEnabled() bool {
	return c.VoiceAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
