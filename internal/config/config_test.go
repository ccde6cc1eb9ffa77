package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "builds", cfg.BuildsContainer)
	assert.Equal(t, 7, cfg.InvitationExpiryDays)
	assert.False(t, cfg.RoleHierarchy)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("ROLE_HIERARCHY", "true")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "plantstore")
	t.Setenv("AZURE_STORAGE_KEY", "a2V5")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.example.com , ,https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.RoleHierarchy)
	assert.True(t, cfg.AzureConfigured())
	assert.Equal(t, "https://plantstore.blob.core.windows.net/", cfg.AzureStorageURL)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                 "8080",
			Environment:          "development",
			AuthJWTSecret:        defaultAuthSecret,
			SessionTTLHours:      24,
			SASExpiryMinutes:     60,
			StaleSessionHours:    12,
			InvitationExpiryDays: 7,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"development defaults", func(c *Config) {}, ""},
		{"empty port", func(c *Config) { c.Port = " " }, "API_PORT must not be empty"},
		{"zero sas expiry", func(c *Config) { c.SASExpiryMinutes = 0 }, "SAS_EXPIRY_MINUTES must be positive"},
		{"negative stale hours", func(c *Config) { c.StaleSessionHours = -1 }, "STALE_SESSION_HOURS must be positive"},
		{"production default secret", func(c *Config) {
			c.Environment = "production"
			c.DatabaseURL = "postgres://db"
		}, "AUTH_JWT_SECRET or AUTH_PUBLIC_KEY_PEM must be set in production"},
		{"production without database", func(c *Config) {
			c.Environment = "production"
			c.AuthJWTSecret = "s3cret"
		}, "DATABASE_URL must be set in production"},
		{"production complete", func(c *Config) {
			c.Environment = "production"
			c.AuthJWTSecret = "s3cret"
			c.DatabaseURL = "postgres://db"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
