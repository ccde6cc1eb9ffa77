// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const defaultAuthSecret = "your-secret-key"

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	RedisURL    string

	MigrationsPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Identity provider
	AuthIssuer       string
	AuthAudience     string
	AuthClientID     string
	AuthClientSecret string
	AuthRedirectURL  string
	AuthJWTSecret    string
	AuthPublicKeyPEM string
	SessionTTLHours  int

	// Blob storage
	AzureStorageAccount string
	AzureStorageKey     string
	AzureStorageURL     string
	BuildsContainer     string
	SASExpiryMinutes    int

	// Authorization
	RoleHierarchy        bool
	InvitationExpiryDays int

	// Maintenance jobs
	StaleSessionHours int

	// Frontend URL for redirects after login/logout
	FrontendURL        string
	CORSAllowedOrigins []string
}

// Load reads configuration from the environment (and an optional config.yaml).
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("API_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "redis://localhost:6379")
	v.SetDefault("MIGRATIONS_PATH", "./internal/db/migrations")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("AUTH_ISSUER", "")
	v.SetDefault("AUTH_AUDIENCE", "")
	v.SetDefault("AUTH_CLIENT_ID", "")
	v.SetDefault("AUTH_CLIENT_SECRET", "")
	v.SetDefault("AUTH_REDIRECT_URL", "http://localhost:8080/v1/auth/callback")
	v.SetDefault("AUTH_JWT_SECRET", defaultAuthSecret)
	v.SetDefault("AUTH_PUBLIC_KEY_PEM", "")
	v.SetDefault("SESSION_TTL_HOURS", 24)

	v.SetDefault("AZURE_STORAGE_ACCOUNT", "")
	v.SetDefault("AZURE_STORAGE_KEY", "")
	v.SetDefault("AZURE_STORAGE_URL", "")
	v.SetDefault("BUILDS_CONTAINER", "builds")
	v.SetDefault("SAS_EXPIRY_MINUTES", 60)

	v.SetDefault("ROLE_HIERARCHY", false)
	v.SetDefault("INVITATION_EXPIRY_DAYS", 7)

	v.SetDefault("STALE_SESSION_HOURS", 12)

	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:           v.GetString("API_PORT"),
		Environment:    v.GetString("ENVIRONMENT"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		RedisURL:       v.GetString("REDIS_URL"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		AuthIssuer:       v.GetString("AUTH_ISSUER"),
		AuthAudience:     v.GetString("AUTH_AUDIENCE"),
		AuthClientID:     v.GetString("AUTH_CLIENT_ID"),
		AuthClientSecret: v.GetString("AUTH_CLIENT_SECRET"),
		AuthRedirectURL:  v.GetString("AUTH_REDIRECT_URL"),
		AuthJWTSecret:    v.GetString("AUTH_JWT_SECRET"),
		AuthPublicKeyPEM: v.GetString("AUTH_PUBLIC_KEY_PEM"),
		SessionTTLHours:  v.GetInt("SESSION_TTL_HOURS"),

		AzureStorageAccount: v.GetString("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     v.GetString("AZURE_STORAGE_KEY"),
		AzureStorageURL:     v.GetString("AZURE_STORAGE_URL"),
		BuildsContainer:     v.GetString("BUILDS_CONTAINER"),
		SASExpiryMinutes:    v.GetInt("SAS_EXPIRY_MINUTES"),

		RoleHierarchy:        v.GetBool("ROLE_HIERARCHY"),
		InvitationExpiryDays: v.GetInt("INVITATION_EXPIRY_DAYS"),

		StaleSessionHours: v.GetInt("STALE_SESSION_HOURS"),

		FrontendURL:        v.GetString("FRONTEND_URL"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.AzureStorageURL == "" && cfg.AzureStorageAccount != "" {
		cfg.AzureStorageURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AzureStorageAccount)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that are unsafe or unusable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("API_PORT must not be empty")
	}
	if c.SessionTTLHours <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}
	if c.SASExpiryMinutes <= 0 {
		return errors.New("SAS_EXPIRY_MINUTES must be positive")
	}
	if c.StaleSessionHours <= 0 {
		return errors.New("STALE_SESSION_HOURS must be positive")
	}
	if c.InvitationExpiryDays <= 0 {
		return errors.New("INVITATION_EXPIRY_DAYS must be positive")
	}
	if c.IsProduction() {
		if c.AuthPublicKeyPEM == "" && (c.AuthJWTSecret == "" || c.AuthJWTSecret == defaultAuthSecret) {
			return errors.New("AUTH_JWT_SECRET or AUTH_PUBLIC_KEY_PEM must be set in production")
		}
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set in production")
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AzureConfigured reports whether blob storage credentials are present.
func (c *Config) AzureConfigured() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// LoginConfigured reports whether the interactive login flow can be offered.
func (c *Config) LoginConfigured() bool {
	return c.AuthIssuer != "" && c.AuthClientID != ""
}
