package config

import (
	_ "embed"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

//go:embed scopes.yaml
var defaultScopes []byte

type AppConfig struct {
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level
	Port     string `validate:"required,numeric"`

	// Provider selects the single upstream serving this deployment.
	Provider         string `validate:"oneof=waqi openmeteo"`
	AQICNToken       string
	WAQIBaseURL      string `validate:"omitempty,url"`
	OpenMeteoBaseURL string `validate:"omitempty,url"`

	// Fan-out behaviour.
	CityTimeout        time.Duration `validate:"gt=0"`
	RequestTimeout     time.Duration `validate:"gt=0"`
	ProviderMaxRetries int           `validate:"gte=0,lte=5"`
	FanoutLimit        int           `validate:"gte=0"` // 0 = every city at once
	BreakerMaxFailures int           `validate:"gte=1"`

	// Scope catalog.
	DefaultScope string                           `validate:"required"`
	Scopes       map[string][]airquality.CitySpec `validate:"required,min=1"`

	// History recorder.
	HistoryScope    string
	HistoryInterval time.Duration `validate:"gte=0"` // 0 disables the recorder
	StoreMaxHistory int           // max number of snapshots per city (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	VerifyCodeTTL    time.Duration `validate:"gt=0"`
	GeocoderAPIKey   string
	CORSAllowOrigins string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.AppEnv = strings.ToLower(getenvDefault("APP_ENV", EnvDev))

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.Provider = strings.ToLower(getenvDefault("AQI_PROVIDER", "waqi"))
	cfg.AQICNToken = getenvDefault("AQICN_API_TOKEN", "demo")
	cfg.WAQIBaseURL = os.Getenv("WAQI_BASE_URL")
	cfg.OpenMeteoBaseURL = os.Getenv("OPENMETEO_BASE_URL")

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"CITY_TIMEOUT", "8s", &cfg.CityTimeout},
		{"REQUEST_TIMEOUT", "20s", &cfg.RequestTimeout},
		{"HISTORY_INTERVAL", "15m", &cfg.HistoryInterval},
		{"STORE_MAX_AGE", "24h", &cfg.StoreMaxAge},
		{"VERIFY_CODE_TTL", "10m", &cfg.VerifyCodeTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dest = v
	}

	cfg.ProviderMaxRetries = getenvInt("PROVIDER_MAX_RETRIES", 0)
	cfg.FanoutLimit = getenvInt("FANOUT_LIMIT", 0)
	cfg.BreakerMaxFailures = getenvInt("BREAKER_MAX_FAILURES", 20)
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.CORSAllowOrigins = getenvDefault("CORS_ALLOW_ORIGINS", "*")

	catalog, err := LoadScopes(os.Getenv("SCOPES_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Scopes = catalog.Scopes
	cfg.DefaultScope = strings.ToLower(getenvDefault("DEFAULT_SCOPE", catalog.Default))
	cfg.HistoryScope = strings.ToLower(getenvDefault("HISTORY_SCOPE", "india"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field scope references.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, ok := c.Scopes[c.DefaultScope]; !ok {
		return fmt.Errorf("invalid config: DEFAULT_SCOPE %q is not a configured scope", c.DefaultScope)
	}
	if c.HistoryInterval > 0 {
		if _, ok := c.Scopes[c.HistoryScope]; !ok {
			return fmt.Errorf("invalid config: HISTORY_SCOPE %q is not a configured scope", c.HistoryScope)
		}
	}
	return nil
}

// ScopeFile is the YAML layout of the scope catalog.
type ScopeFile struct {
	Default string                           `yaml:"default"`
	Scopes  map[string][]airquality.CitySpec `yaml:"scopes"`
}

// LoadScopes reads the catalog from path, or the embedded default when path is empty.
func LoadScopes(path string) (ScopeFile, error) {
	data := defaultScopes
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return ScopeFile{}, fmt.Errorf("read SCOPES_FILE: %w", err)
		}
		data = b
	}
	return ParseScopes(data)
}

// ParseScopes decodes a YAML scope catalog. Scope names are lower-cased.
func ParseScopes(data []byte) (ScopeFile, error) {
	var f ScopeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ScopeFile{}, fmt.Errorf("parse scopes: %w", err)
	}
	if len(f.Scopes) == 0 {
		return ScopeFile{}, fmt.Errorf("parse scopes: no scopes defined")
	}
	scopes := make(map[string][]airquality.CitySpec, len(f.Scopes))
	for name, cities := range f.Scopes {
		scopes[strings.ToLower(strings.TrimSpace(name))] = cities
	}
	f.Scopes = scopes
	if f.Default == "" {
		f.Default = "world"
	}
	f.Default = strings.ToLower(f.Default)
	return f, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return def
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
