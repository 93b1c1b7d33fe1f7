// Package config loads service configuration from an optional YAML file,
// a best-effort .env file and the process environment.
//
// Every third-party credential is optional. A feature whose credential is
// missing stays mounted but answers 503, so a local checkout runs with
// nothing more than JWT_SECRET set.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingJWTSecret = errors.New("config: JWT_SECRET is required")

// Config is the fully resolved service configuration.
type Config struct {
	Env        string `mapstructure:"env"`
	Port       int    `mapstructure:"port"`
	LogLevel   string `mapstructure:"log_level"`
	StaticDir  string `mapstructure:"static_dir"`
	ContentDir string `mapstructure:"content_dir"`

	DB     DB     `mapstructure:"database"`
	Auth   Auth   `mapstructure:"auth"`
	Google Google `mapstructure:"google"`
	OpenAI OpenAI `mapstructure:"openai"`
	Azure  Azure  `mapstructure:"azure"`
	Email  Email  `mapstructure:"email"`
}

// DB selects the SQL backend. Driver is "sqlite" (Path) or "postgres" (URL).
type DB struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
}

// DSN returns the data source name for the configured driver.
func (db DB) DSN() (string, error) {
	switch db.Driver {
	case "sqlite":
		if db.Path == "" {
			return "", errors.New("config: DB_PATH is empty")
		}
		return db.Path, nil
	case "postgres":
		if db.URL == "" {
			return "", errors.New("config: DATABASE_URL is required for the postgres driver")
		}
		return db.URL, nil
	default:
		return "", fmt.Errorf("config: unknown DB_DRIVER %q", db.Driver)
	}
}

// Auth holds token verification and admin allowlist settings.
type Auth struct {
	JWTSecret        string `mapstructure:"jwt_secret"`
	JWTIssuer        string `mapstructure:"jwt_issuer"`
	AdminEmail       string `mapstructure:"admin_email"`
	AdminEmailDomain string `mapstructure:"admin_email_domain"`
}

type Google struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

// Enabled reports whether Google sign-in routes should be mounted.
func (g Google) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type OpenAI struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type Azure struct {
	TTSKey    string `mapstructure:"tts_key"`
	TTSRegion string `mapstructure:"tts_region"`
	TTSVoice  string `mapstructure:"tts_voice"`
}

type Email struct {
	ResendAPIKey   string `mapstructure:"resend_api_key"`
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	From           string `mapstructure:"from"`
	NotifyTo       string `mapstructure:"notify_to"`
}

// envBindings maps config keys to the environment variable names the
// deployment already uses.
var envBindings = map[string]string{
	"env":                     "APP_ENV",
	"port":                    "PORT",
	"log_level":               "LOG_LEVEL",
	"static_dir":              "STATIC_DIR",
	"content_dir":             "CONTENT_DIR",
	"database.driver":         "DB_DRIVER",
	"database.path":           "DB_PATH",
	"database.url":            "DATABASE_URL",
	"auth.jwt_secret":         "JWT_SECRET",
	"auth.jwt_issuer":         "JWT_ISSUER",
	"auth.admin_email":        "ADMIN_EMAIL",
	"auth.admin_email_domain": "ADMIN_EMAIL_DOMAIN",
	"google.client_id":        "GOOGLE_CLIENT_ID",
	"google.client_secret":    "GOOGLE_CLIENT_SECRET",
	"google.callback_url":     "GOOGLE_CALLBACK_URL",
	"openai.api_key":          "OPENAI_API_KEY",
	"openai.model":            "OPENAI_MODEL",
	"openai.base_url":         "OPENAI_BASE_URL",
	"azure.tts_key":           "AZURE_TTS_KEY",
	"azure.tts_region":        "AZURE_TTS_REGION",
	"azure.tts_voice":         "AZURE_TTS_VOICE",
	"email.resend_api_key":    "RESEND_API_KEY",
	"email.sendgrid_api_key":  "SENDGRID_API_KEY",
	"email.from":              "EMAIL_FROM",
	"email.notify_to":         "NOTIFY_EMAIL",
}

// Load reads configuration. A missing .env or config.yaml is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/kidszone.db")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("azure.tts_voice", "en-US-AnaNeural")
	v.SetDefault("email.from", "Islam Kids Zone <noreply@islamkidszone.com>")
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: invalid PORT %d", cfg.Port)
	}
	if _, err := cfg.DB.DSN(); err != nil {
		return nil, err
	}

	cfg.Auth.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.Auth.AdminEmail))
	cfg.Auth.AdminEmailDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cfg.Auth.AdminEmailDomain), "@"))
	if cfg.Google.CallbackURL == "" {
		cfg.Google.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}

	return &cfg, nil
}

// SlogLevel converts LogLevel to a slog.Level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// IsLocal reports whether the service runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == "dev" || c.Env == "development"
}
