package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// DatabaseURL enables generation-history persistence when set. Both the
	// CLI and the web service run without a database; history endpoints are
	// simply disabled.
	DatabaseURL string

	// StorageDir is the root directory for uploaded inputs and generated outputs.
	StorageDir string

	GeminiAPIKey string
	GeminiModel  string

	// OutputFormat is "png" or "jpeg". OutputQuality applies to JPEG only.
	OutputFormat  string
	OutputQuality int

	// MaxAttempts bounds the sequential retry loop for transient API errors.
	// RetryBaseDelay is multiplied by the attempt index between retries.
	MaxAttempts    int
	RetryBaseDelay time.Duration
	AttemptTimeout time.Duration

	// MaxInputDimension caps the longest side of input images when two images
	// are sent. MaxInputDimensionGuided is the lower cap applied when a
	// guidance image makes it three; oversized payloads correlate with empty
	// responses from the API.
	MaxInputDimension       int
	MaxInputDimensionGuided int

	// RefinementMaxLen bounds user refinement text appended to the prompt.
	RefinementMaxLen int

	GeoIPDBPath   string
	DefaultLocale string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                  getEnv("APP_ENV", "development"),
		Port:                    getEnv("PORT", "8080"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		StorageDir:              getEnv("STORAGE_DIR", "./data"),
		GeminiAPIKey:            os.Getenv("GEMINI_API_KEY"),
		GeminiModel:             getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		OutputFormat:            strings.ToLower(getEnv("OUTPUT_FORMAT", "png")),
		OutputQuality:           getEnvInt("OUTPUT_QUALITY", 95),
		MaxAttempts:             getEnvInt("MAX_ATTEMPTS", 3),
		RetryBaseDelay:          time.Second * time.Duration(getEnvInt("RETRY_BASE_DELAY_SECONDS", 1)),
		AttemptTimeout:          time.Second * time.Duration(getEnvInt("ATTEMPT_TIMEOUT_SECONDS", 120)),
		MaxInputDimension:       getEnvInt("MAX_INPUT_DIMENSION", 2048),
		MaxInputDimensionGuided: getEnvInt("MAX_INPUT_DIMENSION_GUIDED", 1536),
		RefinementMaxLen:        getEnvInt("REFINEMENT_MAX_LENGTH", 2000),
		GeoIPDBPath:             os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:           getEnv("DEFAULT_LOCALE", "en"),
		HTTPReadTimeout:         time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:        time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:         time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	if cfg.OutputFormat == "jpg" {
		cfg.OutputFormat = "jpeg"
	}
	if cfg.OutputFormat != "png" && cfg.OutputFormat != "jpeg" {
		return nil, fmt.Errorf("OUTPUT_FORMAT must be png or jpeg, got %q", cfg.OutputFormat)
	}
	if cfg.OutputQuality < 1 || cfg.OutputQuality > 100 {
		return nil, fmt.Errorf("OUTPUT_QUALITY must be within 1-100, got %d", cfg.OutputQuality)
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.MaxInputDimensionGuided > cfg.MaxInputDimension {
		return nil, fmt.Errorf("MAX_INPUT_DIMENSION_GUIDED (%d) must not exceed MAX_INPUT_DIMENSION (%d)",
			cfg.MaxInputDimensionGuided, cfg.MaxInputDimension)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
