package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrNoCredentials is returned when no Google service-account credential
// source is configured.
var ErrNoCredentials = fmt.Errorf(
	"set GOOGLE_SHEETS_CREDENTIALS_B64, GOOGLE_SHEETS_CREDENTIALS, or GOOGLE_SHEETS_CREDENTIALS_FILE")

// Config holds all server configuration
type Config struct {
	Port           int
	AllowedOrigins []string

	// Gemini
	GeminiAPIKey    string
	GeminiModel     string
	TrainingModel   string
	Temperature     float64
	MaxOutputTokens int

	// Restaurant identity injected into the persona instruction
	RestaurantName string
	RestaurantInfo string
	Timezone       string

	// Google Sheets row store
	SheetID         string
	credentialsB64  string
	credentialsJSON string
	credentialsFile string
	MenuCacheTTL    time.Duration

	// Redis-backed rate limiting (optional)
	RedisURL        string
	RedisPassword   string
	RateLimitPerMin int
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		Port:            8080,
		AllowedOrigins:  []string{"*"},
		GeminiModel:     "gemini-1.5-flash",
		TrainingModel:   "gemini-2.5-flash",
		Temperature:     0.7,
		MaxOutputTokens: 400,
		RestaurantName:  "Our Restaurant",
		RestaurantInfo:  "Hours and location not yet configured.",
		Timezone:        "America/Vancouver",
		MenuCacheTTL:    5 * time.Minute,
		RedisURL:        "localhost:6379",
		RateLimitPerMin: 30,
	}

	// GEMINI_API_KEY and GOOGLE_SHEET_ID are read but not required here:
	// a missing credential disables the affected component at startup
	// instead of preventing the process from serving at all.
	config.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	config.SheetID = strings.TrimSpace(os.Getenv("GOOGLE_SHEET_ID"))

	config.credentialsB64 = os.Getenv("GOOGLE_SHEETS_CREDENTIALS_B64")
	config.credentialsJSON = os.Getenv("GOOGLE_SHEETS_CREDENTIALS")
	config.credentialsFile = os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE")

	// Optional: PORT
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		config.Port = p
	}

	// Optional: ALLOWED_ORIGINS (comma-separated)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	// Optional: MENU_CACHE_TTL (in seconds)
	if ttl := os.Getenv("MENU_CACHE_TTL"); ttl != "" {
		t, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid MENU_CACHE_TTL: %w", err)
		}
		config.MenuCacheTTL = time.Duration(t) * time.Second
	}

	// Optional: GEMINI_MODEL / TRAINING_MODEL
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.GeminiModel = model
	}
	if model := os.Getenv("TRAINING_MODEL"); model != "" {
		config.TrainingModel = model
	}

	// Optional: GEMINI_TEMPERATURE
	if temp := os.Getenv("GEMINI_TEMPERATURE"); temp != "" {
		tv, err := strconv.ParseFloat(temp, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid GEMINI_TEMPERATURE: %w", err)
		}
		config.Temperature = tv
	}

	// Optional: GEMINI_MAX_OUTPUT_TOKENS
	if maxTokens := os.Getenv("GEMINI_MAX_OUTPUT_TOKENS"); maxTokens != "" {
		m, err := strconv.Atoi(maxTokens)
		if err != nil {
			return nil, fmt.Errorf("invalid GEMINI_MAX_OUTPUT_TOKENS: %w", err)
		}
		config.MaxOutputTokens = m
	}

	// Optional: RESTAURANT_NAME / RESTAURANT_INFO / TIMEZONE
	if name := os.Getenv("RESTAURANT_NAME"); name != "" {
		config.RestaurantName = name
	}
	if info := os.Getenv("RESTAURANT_INFO"); info != "" {
		config.RestaurantInfo = info
	}
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
		config.Timezone = tz
	}

	// Optional: REDIS_URL / REDIS_PASSWORD
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.RedisURL = redisURL
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.RedisPassword = redisPassword
	}

	// Optional: RATE_LIMIT_PER_MIN
	if limit := os.Getenv("RATE_LIMIT_PER_MIN"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MIN: %w", err)
		}
		config.RateLimitPerMin = l
	}

	return config, nil
}

// Credentials resolves the Google service-account key, trying the base64
// form first, then the raw JSON form, then a file path.
func (c *Config) Credentials() ([]byte, error) {
	if c.credentialsB64 != "" {
		raw, err := base64.StdEncoding.DecodeString(c.credentialsB64)
		if err != nil {
			return nil, fmt.Errorf("invalid GOOGLE_SHEETS_CREDENTIALS_B64: %w", err)
		}
		return raw, nil
	}
	if c.credentialsJSON != "" {
		return []byte(c.credentialsJSON), nil
	}
	if c.credentialsFile != "" {
		raw, err := os.ReadFile(c.credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read GOOGLE_SHEETS_CREDENTIALS_FILE: %w", err)
		}
		return raw, nil
	}
	return nil, ErrNoCredentials
}

// Location returns the restaurant's local timezone. Timezone is validated
// at load time, so failures here fall back to UTC instead of erroring.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
