package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ALLOWED_ORIGINS", "GEMINI_API_KEY", "GEMINI_MODEL",
		"TRAINING_MODEL", "GEMINI_TEMPERATURE", "GEMINI_MAX_OUTPUT_TOKENS",
		"RESTAURANT_NAME", "RESTAURANT_INFO", "TIMEZONE",
		"GOOGLE_SHEET_ID", "GOOGLE_SHEETS_CREDENTIALS_B64",
		"GOOGLE_SHEETS_CREDENTIALS", "GOOGLE_SHEETS_CREDENTIALS_FILE",
		"MENU_CACHE_TTL", "REDIS_URL", "REDIS_PASSWORD", "RATE_LIMIT_PER_MIN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "gemini-1.5-flash", cfg.GeminiModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.TrainingModel)
	assert.InDelta(t, 0.7, cfg.Temperature, 0.001)
	assert.Equal(t, 400, cfg.MaxOutputTokens)
	assert.Equal(t, "America/Vancouver", cfg.Timezone)
	assert.Equal(t, 5*time.Minute, cfg.MenuCacheTTL)
	assert.Equal(t, 30, cfg.RateLimitPerMin)

	// Missing credentials do not fail load; components start degraded.
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.Empty(t, cfg.SheetID)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MENU_CACHE_TTL", "60")
	t.Setenv("GEMINI_TEMPERATURE", "0.9")
	t.Setenv("TIMEZONE", "Asia/Tokyo")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.MenuCacheTTL)
	assert.InDelta(t, 0.9, cfg.Temperature, 0.001)
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "not-a-port")
	_, err := LoadConfig()
	assert.Error(t, err)
	t.Setenv("PORT", "")

	t.Setenv("MENU_CACHE_TTL", "five minutes")
	_, err = LoadConfig()
	assert.Error(t, err)
	t.Setenv("MENU_CACHE_TTL", "")

	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestCredentialsResolution(t *testing.T) {
	clearEnv(t)

	key := `{"type":"service_account"}`

	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_B64", base64.StdEncoding.EncodeToString([]byte(key)))
	cfg, err := LoadConfig()
	require.NoError(t, err)
	raw, err := cfg.Credentials()
	require.NoError(t, err)
	assert.Equal(t, key, string(raw))

	clearEnv(t)
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", key)
	cfg, err = LoadConfig()
	require.NoError(t, err)
	raw, err = cfg.Credentials()
	require.NoError(t, err)
	assert.Equal(t, key, string(raw))

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(key), 0o600))
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_FILE", path)
	cfg, err = LoadConfig()
	require.NoError(t, err)
	raw, err = cfg.Credentials()
	require.NoError(t, err)
	assert.Equal(t, key, string(raw))

	clearEnv(t)
	cfg, err = LoadConfig()
	require.NoError(t, err)
	_, err = cfg.Credentials()
	assert.ErrorIs(t, err, ErrNoCredentials)

	clearEnv(t)
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_B64", "%%% not base64 %%%")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	_, err = cfg.Credentials()
	assert.Error(t, err)
}
