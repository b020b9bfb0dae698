package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Clerk     ClerkConfig
	Admin     AdminConfig
	Geocoding GeocodingConfig
	Storage   StorageConfig
	AWS       AWSConfig
	Time      TimeConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/community_pulse?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. Empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ClerkConfig holds identity provider settings.
type ClerkConfig struct {
	// PEMPublicKey verifies session tokens directly when set; otherwise JWKSURL is used.
	PEMPublicKey  string
	JWKSURL       string
	Issuer        string // optional, checked against the iss claim when set
	APIURL        string
	SecretKey     string
	WebhookSecret string // svix signing secret; empty skips signature checks
	LeewaySeconds int
}

// AdminConfig lists emails seeded into role_assignments as admins at startup.
type AdminConfig struct {
	Emails []string
}

// GeocodingConfig holds the Google Maps key. Empty key disables geocoding.
type GeocodingConfig struct {
	GoogleMapsAPIKey string
}

// StorageConfig selects where uploaded images live.
type StorageConfig struct {
	Driver     string // "local" or "s3"
	UploadDir  string
	URLPrefix  string // mount path for local files
	MaxImageMB int
}

// AWSConfig holds AWS credentials and the image bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ImagesBucket    string
	PublicBaseURL   string // optional CDN/base URL for public objects
}

// TimeConfig holds the regional time zone used for all date logic.
type TimeConfig struct {
	Zone string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// UseS3 reports whether images go to the S3 bucket.
func (c *Config) UseS3() bool {
	return strings.EqualFold(c.Storage.Driver, "s3") && c.AWS.ImagesBucket != ""
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8000"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "community_pulse"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Clerk: ClerkConfig{
			PEMPublicKey:  strings.ReplaceAll(getEnv("CLERK_PEM_PUBLIC_KEY", ""), `\n`, "\n"),
			JWKSURL:       getEnv("CLERK_JWKS_URL", ""),
			Issuer:        getEnv("CLERK_ISSUER", ""),
			APIURL:        strings.TrimRight(getEnv("CLERK_API_URL", "https://api.clerk.com"), "/"),
			SecretKey:     getEnv("CLERK_SECRET_KEY", ""),
			WebhookSecret: getEnv("CLERK_WEBHOOK_SECRET", ""),
			LeewaySeconds: getEnvInt("CLERK_LEEWAY_SEC", 60),
		},
		Admin: AdminConfig{
			Emails: splitTrim(strings.ToLower(getEnv("ADMIN_EMAILS", "")), ","),
		},
		Geocoding: GeocodingConfig{
			GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "local"),
			UploadDir:  getEnv("UPLOAD_DIR", "uploads"),
			URLPrefix:  getEnv("UPLOAD_URL_PREFIX", "/uploads"),
			MaxImageMB: getEnvInt("MAX_IMAGE_MB", 10),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-south-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ImagesBucket:    getEnv("AWS_S3_IMAGES_BUCKET", ""),
			PublicBaseURL:   getEnv("AWS_S3_PUBLIC_BASE_URL", ""),
		},
		Time: TimeConfig{
			Zone: getEnv("APP_TIMEZONE", "Asia/Kolkata"),
		},
	}

	if cfg.Clerk.PEMPublicKey == "" && cfg.Clerk.JWKSURL == "" {
		return nil, fmt.Errorf("one of CLERK_PEM_PUBLIC_KEY or CLERK_JWKS_URL is required")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
