package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// HTTP
	Port    string
	BaseURL string

	// Database
	DatabaseURL        string
	DirectoryTimeout   time.Duration
	DefaultPhoneRegion string

	// Access
	SessionSecret string
	AdminPassword string
	SitePassword  string

	// Event Details
	Location     *time.Location
	EventDate    time.Time
	RSVPDeadline time.Time // zero means RSVPs never close
	MealOptions  []string

	// Email
	ResendAPIKey string
	EmailFrom    string
	EmailSubject string
	MailTimeout  time.Duration

	// Music search
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyMarket       string
	SearchCacheTTL      time.Duration

	// Background work
	RedisURL string

	// Observability
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	ServiceName  string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL:         getEnv("DATABASE_URL", "sqlite://wedding.db"),
		DefaultPhoneRegion:  strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
		SessionSecret:       getEnv("SESSION_SECRET", "change-me-in-production"),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
		SitePassword:        getEnv("SITE_PASSWORD", ""),
		MealOptions:         getList("MEAL_OPTIONS", "beef,chicken,fish,vegetarian"),
		ResendAPIKey:        getEnv("RESEND_API_KEY", ""),
		EmailFrom:           getEnv("EMAIL_FROM", "onboarding@resend.dev"),
		EmailSubject:        getEnv("EMAIL_SUBJECT", "Your RSVP is confirmed"),
		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyMarket:       getEnv("SPOTIFY_MARKET", "US"),
		RedisURL:            getEnv("REDIS_URL", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
		OTLPEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:         getEnv("SERVICE_NAME", "wedding"),
	}

	var err error
	if cfg.DirectoryTimeout, err = getDuration("DIRECTORY_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.MailTimeout, err = getDuration("MAIL_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.SearchCacheTTL, err = getDuration("SEARCH_CACHE_TTL", "1h"); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	// Parse event date
	if s := getEnv("EVENT_DATE", ""); s != "" {
		eventDate, err := parseTime(s, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid EVENT_DATE format: %w", err)
		}
		cfg.EventDate = eventDate
	}

	// Parse RSVP deadline
	if s := getEnv("RSVP_DEADLINE", ""); s != "" {
		deadline, err := parseTime(s, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid RSVP_DEADLINE format: %w", err)
		}
		cfg.RSVPDeadline = deadline
	}

	return cfg, nil
}

// DeadlinePassed reports whether RSVP writes are closed at now.
func (c *Config) DeadlinePassed(now time.Time) bool {
	return !c.RSVPDeadline.IsZero() && now.After(c.RSVPDeadline)
}

// parseTime accepts RFC3339 or a zone-less local timestamp interpreted in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, loc)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
