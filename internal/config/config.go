package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	BaseURL         string // public base URL used in email links
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// TokenFormat selects the token backend: "jwt" (default) or "paseto"
	TokenFormat          string
	JWTSecret            string
	JWTAlgorithm         string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	// PASETO symmetric key (must be 32 bytes for v4.local), only used with TokenFormat "paseto"
	PasetoKey  []byte
	BcryptCost int
}

type EmailConfig struct {
	Username string
	Password string
	From     string
	FromName string
	Server   string
	Port     int
}

// StorageConfig points at an S3-compatible bucket holding user avatars
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string // base URL objects are served from
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			BaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "contacts"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenFormat:          strings.ToLower(getEnv("TOKEN_FORMAT", "jwt")),
			JWTSecret:            getEnv("JWT_SECRET", ""),
			JWTAlgorithm:         strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
			AccessTokenDuration:  getDurationEnv("JWT_EXPIRATION_SECONDS", time.Hour),
			RefreshTokenDuration: getDurationEnv("JWT_REFRESH_EXPIRATION_SECONDS", 7*24*time.Hour),
			PasetoKey:            []byte(getEnv("PASETO_KEY", "")),
			BcryptCost:           getIntEnv("BCRYPT_COST", 10),
		},
		Email: EmailConfig{
			Username: getEnv("MAIL_USERNAME", ""),
			Password: getEnv("MAIL_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", ""),
			FromName: getEnv("MAIL_FROM_NAME", "Contacts API"),
			Server:   getEnv("MAIL_SERVER", ""),
			Port:     getIntEnv("MAIL_PORT", 465),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_ENDPOINT", "http://127.0.0.1:9000"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "avatars"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", "http://127.0.0.1:9000/avatars"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Auth.TokenFormat {
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
		switch c.Auth.JWTAlgorithm {
		case "HS256", "HS384", "HS512":
		default:
			return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.Auth.JWTAlgorithm)
		}
	case "paseto":
		// Validate PASETO key length (must be 32 bytes for v4.local)
		if len(c.Auth.PasetoKey) != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.Auth.PasetoKey))
		}
	default:
		return fmt.Errorf("unsupported TOKEN_FORMAT %q", c.Auth.TokenFormat)
	}

	if c.Auth.AccessTokenDuration <= 0 || c.Auth.RefreshTokenDuration <= 0 {
		return fmt.Errorf("token durations must be positive")
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
