package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	TelegramToken     string `validate:"required"`
	AccuWeatherAPIKey string `validate:"required"`

	// Optional; when set, reverse geocoding uses Google instead of Nominatim.
	GoogleGeocoderAPIKey string

	AccuWeatherLanguage string
	NominatimUserAgent  string

	SearchTimeout         time.Duration `validate:"gt=0"`
	ReverseGeocodeTimeout time.Duration `validate:"gt=0"`

	ChartDir       string        `validate:"required"`
	ChartRetention time.Duration // 0 keeps charts forever
	SessionIdleTTL time.Duration // 0 keeps idle sessions forever

	// CleanupInterval controls how often charts and idle sessions are purged.
	CleanupInterval time.Duration `validate:"gt=0"`

	Port string `validate:"required,numeric"`

	// WebhookURL switches Telegram delivery from long polling to webhooks.
	WebhookURL string `validate:"omitempty,url"`

	// WebhookSecret is appended to WebhookURL as the final path segment so
	// only Telegram knows the full address.
	WebhookSecret string `validate:"required_with=WebhookURL,omitempty,min=16,alphanum"`

	LogLevel string `validate:"oneof=trace debug info warn error"`
	LogFile  string

	OTelEnabled  bool
	OTelEndpoint string
	Environment  string

	// DotenvErr records why .env was not loaded, for logging once the
	// logger exists. A missing file is normal outside development.
	DotenvErr error `validate:"-"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfg.DotenvErr = godotenv.Load()

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.AccuWeatherAPIKey = getenvDefault("ACCUWEATHER_API_KEY", os.Getenv("API_KEY"))
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	cfg.AccuWeatherLanguage = getenvDefault("ACCUWEATHER_LANGUAGE", "en-us")
	cfg.NominatimUserAgent = getenvDefault("NOMINATIM_USER_AGENT", "RouteWeatherBot/1.0")

	var err error
	if cfg.SearchTimeout, err = getenvDuration("SEARCH_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.ReverseGeocodeTimeout, err = getenvDuration("REVERSE_GEOCODE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.ChartDir = getenvDefault("CHART_DIR", "charts/generated_charts")
	if cfg.ChartRetention, err = getenvDuration("CHART_RETENTION", "24h"); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = getenvDuration("SESSION_IDLE_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval, err = getenvDuration("CLEANUP_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")
	cfg.WebhookSecret = os.Getenv("WEBHOOK_SECRET")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFile = os.Getenv("LOG_FILE")

	cfg.OTelEnabled = getenvBool("OTEL_ENABLED", false)
	cfg.OTelEndpoint = getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	cfg.Environment = getenvDefault("APP_ENV", "development")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required secrets and value ranges.
func (c *AppConfig) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("invalid %s: failed %q", envName(fe.Field()), fe.Tag()))
	}
	return errors.Join(msgs...)
}

var envNames = map[string]string{
	"TelegramToken":         "TELEGRAM_TOKEN",
	"AccuWeatherAPIKey":     "ACCUWEATHER_API_KEY",
	"SearchTimeout":         "SEARCH_TIMEOUT",
	"ReverseGeocodeTimeout": "REVERSE_GEOCODE_TIMEOUT",
	"ChartDir":              "CHART_DIR",
	"CleanupInterval":       "CLEANUP_INTERVAL",
	"Port":                  "PORT",
	"WebhookURL":            "WEBHOOK_URL",
	"WebhookSecret":         "WEBHOOK_SECRET",
	"LogLevel":              "LOG_LEVEL",
}

func envName(field string) string {
	if name, ok := envNames[field]; ok {
		return name
	}
	return field
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
