package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Config holds the service settings read from the environment
type Config struct {
	// HTTP Server
	Port         string
	GinMode      string
	AllowOrigins []string

	// Storage
	StoreBackend     string
	DatabaseURL      string
	DBConnectRetries int
	DBRetryInterval  time.Duration

	// Charts and reports
	ChartDir    string
	ChartWidth  int
	ChartHeight int
	ChartFont   string
	ReportDir   string

	// Logging
	LogLevel  string
	LogFormat string
}

func loadConfig() *Config {
	dbHost := getEnvOrDefault("DB_HOST", "localhost")
	dbPort := getEnvOrDefault("DB_PORT", "5432")
	dbUser := getEnvOrDefault("DB_USER", "postgres")
	dbPassword := getEnvOrDefault("DB_PASSWORD", "password")
	dbName := getEnvOrDefault("DB_NAME", "consumption")
	dbSSLMode := getEnvOrDefault("DB_SSLMODE", "disable")

	databaseURL := getEnvOrDefault("DATABASE_URL", fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPassword, dbHost, dbPort, dbName, dbSSLMode))

	return &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		GinMode:      getEnvOrDefault("GIN_MODE", gin.ReleaseMode),
		AllowOrigins: splitList(getEnvOrDefault("ALLOW_ORIGINS", "http://localhost:3000,http://localhost:3001")),

		StoreBackend:     getEnvOrDefault("STORE_BACKEND", "postgres"),
		DatabaseURL:      databaseURL,
		DBConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 30),
		DBRetryInterval:  getEnvDuration("DB_RETRY_INTERVAL", 2*time.Second),

		ChartDir:    getEnvOrDefault("CHART_DIR", "./workspace/charts"),
		ChartWidth:  getEnvInt("CHART_WIDTH", 800),
		ChartHeight: getEnvInt("CHART_HEIGHT", 500),
		ChartFont:   os.Getenv("CHART_FONT"),
		ReportDir:   getEnvOrDefault("REPORT_DIR", "./workspace/reports"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "console"),
	}
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if len(c.AllowOrigins) == 0 {
		problems = append(problems, "ALLOW_ORIGINS must list at least one origin")
	}

	switch c.StoreBackend {
	case "postgres":
		if c.DatabaseURL == "" {
			problems = append(problems, "database URL cannot be empty when using the postgres backend")
		}
		if c.DBConnectRetries < 1 {
			problems = append(problems, fmt.Sprintf("invalid DB_CONNECT_RETRIES %d: must be at least 1", c.DBConnectRetries))
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("invalid store backend '%s': must be one of [postgres memory]", c.StoreBackend))
	}

	if c.ChartDir == "" {
		problems = append(problems, "chart directory cannot be empty")
	}
	if c.ChartWidth < 100 || c.ChartHeight < 100 {
		problems = append(problems, fmt.Sprintf("invalid chart size %dx%d: both sides must be at least 100", c.ChartWidth, c.ChartHeight))
	}

	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		problems = append(problems, fmt.Sprintf("invalid GIN_MODE '%s'", c.GinMode))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("invalid LOG_LEVEL '%s'", c.LogLevel))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid LOG_FORMAT '%s': must be console or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
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
