package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLERK_JWKS_URL", "https://clerk.example.com/.well-known/jwks.json")
	t.Setenv("ADMIN_EMAILS", " Admin@Example.com, ops@example.com ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Kolkata", cfg.Time.Zone)
	assert.Equal(t, []string{"admin@example.com", "ops@example.com"}, cfg.Admin.Emails)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.False(t, cfg.UseS3())
	assert.Equal(t, 60, cfg.Clerk.LeewaySeconds)
}

func TestLoadRequiresKeySource(t *testing.T) {
	t.Setenv("CLERK_JWKS_URL", "")
	t.Setenv("CLERK_PEM_PUBLIC_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "pulse", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/pulse?sslmode=disable", c.DSN())

	c.URL = "postgres://override"
	assert.Equal(t, "postgres://override", c.DSN())
}

func TestUseS3(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Driver: "S3"}, AWS: AWSConfig{ImagesBucket: "pulse-images"}}
	assert.True(t, cfg.UseS3())

	cfg.AWS.ImagesBucket = ""
	assert.False(t, cfg.UseS3())
}
