package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// Config holds application configuration.
type Config struct {
	Env         Environment
	Port        string
	LogLevel    string
	LogFormat   string
	LogOutput   string
	LogFilePath string
	CORS        CORSConfig
	Backend     BackendConfig
	Storage     StorageConfig
	Locale      LocaleConfig
	SessionTTL  time.Duration

	// SettingsPath is the JSON file behind the admin settings page.
	SettingsPath string
}

// CORSConfig holds CORS-specific configuration.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// BackendConfig points at the REST backend. An empty URL selects the
// built-in demo backend.
type BackendConfig struct {
	URL      string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Demo reports whether the demo backend should be used.
func (b BackendConfig) Demo() bool {
	return strings.TrimSpace(b.URL) == ""
}

// StorageConfig locates the on-disk stores.
type StorageConfig struct {
	ClientsPath  string
	DatabasePath string
}

// LocaleConfig tunes dictionary loading.
type LocaleConfig struct {
	Dir        string
	CacheTTL   time.Duration
	MaxClients int
}

type envConfig struct {
	AppEnv               string        `env:"APP_ENV" envDefault:"dev"`
	Port                 string        `env:"PORT" envDefault:"52000"`
	LogLevel             string        `env:"LOG_LEVEL"`
	LogFormat            string        `env:"LOG_FORMAT"`
	LogOutput            string        `env:"LOG_OUTPUT" envDefault:"stdout"`
	LogFilePath          string        `env:"LOG_FILE_PATH"`
	CORSAllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	CORSAllowCredentials bool          `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	BackendURL           string        `env:"BACKEND_URL"`
	BackendTimeout       time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`
	BackendCacheTTL      time.Duration `env:"BACKEND_CACHE_TTL" envDefault:"1m"`
	StoragePath          string        `env:"STORAGE_PATH" envDefault:"data/clients.db"`
	DatabasePath         string        `env:"DATABASE_PATH" envDefault:"data/uploads.db"`
	LocalesDir           string        `env:"LOCALES_DIR"`
	LocaleCacheTTL       time.Duration `env:"LOCALE_CACHE_TTL" envDefault:"10m"`
	LocaleMaxClients     int           `env:"LOCALE_MAX_CLIENTS" envDefault:"1000"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SettingsPath         string        `env:"SETTINGS_PATH" envDefault:"data/settings.json"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads .env when present, then environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	var raw envConfig
	if err := ParseEnv(&raw); err != nil {
		return Config{}, err
	}

	appEnv := parseEnv(raw.AppEnv)
	cfg := Config{
		Env:         appEnv,
		Port:        strings.TrimSpace(raw.Port),
		LogLevel:    valueOr(raw.LogLevel, defaultLogLevel(appEnv)),
		LogFormat:   valueOr(raw.LogFormat, defaultLogFormat(appEnv)),
		LogOutput:   valueOr(raw.LogOutput, "stdout"),
		LogFilePath: strings.TrimSpace(raw.LogFilePath),
		CORS:        loadCORSConfig(appEnv, raw.CORSAllowedOrigins, raw.CORSAllowCredentials),
		Backend: BackendConfig{
			URL:      strings.TrimRight(strings.TrimSpace(raw.BackendURL), "/"),
			Timeout:  raw.BackendTimeout,
			CacheTTL: raw.BackendCacheTTL,
		},
		Storage: StorageConfig{
			ClientsPath:  strings.TrimSpace(raw.StoragePath),
			DatabasePath: strings.TrimSpace(raw.DatabasePath),
		},
		Locale: LocaleConfig{
			Dir:        strings.TrimSpace(raw.LocalesDir),
			CacheTTL:   raw.LocaleCacheTTL,
			MaxClients: raw.LocaleMaxClients,
		},
		SessionTTL:   raw.SessionTTL,
		SettingsPath: strings.TrimSpace(raw.SettingsPath),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is empty")
	}
	if c.Storage.ClientsPath == "" {
		return fmt.Errorf("storage path is empty")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.SettingsPath == "" {
		return fmt.Errorf("settings path is empty")
	}
	if c.Locale.MaxClients <= 0 {
		return fmt.Errorf("locale max clients must be positive, got %d", c.Locale.MaxClients)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	return nil
}

// IsDev returns true if the environment is development.
func (c Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsProd returns true if the environment is production.
func (c Config) IsProd() bool {
	return c.Env == EnvProd
}

func parseEnv(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return EnvProd
	default:
		return EnvDev
	}
}

func defaultLogLevel(env Environment) string {
	switch env {
	case EnvProd:
		return "info"
	default:
		return "debug"
	}
}

func defaultLogFormat(env Environment) string {
	switch env {
	case EnvProd:
		return "json"
	default:
		return "console"
	}
}

func loadCORSConfig(env Environment, origins []string, allowCredentials bool) CORSConfig {
	cleaned := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) > 0 {
		return CORSConfig{AllowedOrigins: cleaned, AllowCredentials: allowCredentials}
	}
	switch env {
	case EnvProd:
		return CORSConfig{AllowedOrigins: []string{}, AllowCredentials: allowCredentials}
	default:
		return CORSConfig{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:52000"},
			AllowCredentials: allowCredentials,
		}
	}
}

func valueOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
