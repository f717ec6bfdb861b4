package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	Metrics struct {
		Addr string
	}

	Auth struct {
		JWTSecret string
	}

	Firebase struct {
		CredentialsFile string
		CredentialsJSON string
	}

	Feed struct {
		PageSize         int
		IncludeUnlocated bool
	}

	Admin struct {
		SearchScanLimit int
		LogLimit        int
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "matchmaker")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	}
	if cfg.DB.DSN == "" && cfg.DB.Driver == "sqlite" {
		cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "matchmaker.db")
	}
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "matchmaker")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getIntDefault("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Prometheus; empty disables the endpoint
	cfg.Metrics.Addr = getEnvDefault("METRICS_ADDR", ":9090")

	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "dev-secret")

	// Push is optional; without credentials notifications stay in-app only.
	cfg.Firebase.CredentialsFile = os.Getenv("FIREBASE_CREDENTIALS_PATH")
	cfg.Firebase.CredentialsJSON = os.Getenv("FIREBASE_CREDENTIALS_JSON")

	cfg.Feed.PageSize = getIntDefault("FEED_PAGE_SIZE", 100)
	cfg.Feed.IncludeUnlocated = !isTruthy(os.Getenv("FEED_EXCLUDE_UNLOCATED"))

	cfg.Admin.SearchScanLimit = getIntDefault("ADMIN_SEARCH_SCAN_LIMIT", 500)
	cfg.Admin.LogLimit = getIntDefault("ADMIN_LOG_LIMIT", 100)

	return cfg
}

// PushEnabled reports whether Firebase credentials were provided.
func (c *Config) PushEnabled() bool {
	return c.Firebase.CredentialsFile != "" || c.Firebase.CredentialsJSON != ""
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getIntDefault(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
