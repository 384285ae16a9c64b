package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultJWTSecret is only acceptable in development.
const defaultJWTSecret = "dev-secret-change-me"

// Config is the process configuration. It is built once in main and passed
// explicitly to every component that needs it.
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	AppEnv          string
	Port            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type PostgresConfig struct {
	URL      string
	MinConns int32
	MaxConns int32
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LoadEnv reads the configuration from environment variables, falling back to
// development defaults.
func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "development"),
			Port:            getEnv("SERVER_PORT", "8080"),
			MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOGGER_LEVEL", "info"),
			Encoding: getEnv("LOGGER_ENCODING", ""),
		},
		Postgres: PostgresConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", defaultJWTSecret),
			Expiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),
			Issuer: getEnv("JWT_ISSUER", "glass-shop"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", nil),
		},
	}
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Server.AppEnv) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.Postgres.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.Postgres.MinConns < 0 || c.Postgres.MaxConns <= 0 || c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("invalid pool bounds: min=%d max=%d", c.Postgres.MinConns, c.Postgres.MaxConns)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.JWT.Secret == defaultJWTSecret && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET must be set outside development")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
