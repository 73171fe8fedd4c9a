// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
	RequestTimeout time.Duration
}

// DatabaseConfig holds database configuration settings
type DatabaseConfig struct {
	Type string // "mongo" or "memory"
	URI  string
	Name string
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	JWTSecret      string
	RedisURL       string // empty disables the cross-instance relay
	AllowedOrigins []string
	Debug          bool
}

const (
	DatabaseMongo  = "mongo"
	DatabaseMemory = "memory"
)

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
		RequestTimeout: 5 * time.Second,
	}
}

// DefaultDatabaseConfig provides default database settings
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type: DatabaseMongo,
		URI:  "mongodb://localhost:27017",
		Name: "mentorlink",
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	for _, location := range []string{".env", "../../.env"} {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. LoadConfig passes os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	serverConfig := DefaultConfig()

	if portStr := getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("invalid PORT %q", portStr)
		}
		serverConfig.Port = port
	}
	if host := getenv("HOST"); host != "" {
		serverConfig.Host = host
	}
	if metricsEnabled := getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}
	if timeout := getenv("REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q", timeout)
		}
		serverConfig.RequestTimeout = d
	}

	dbConfig := DefaultDatabaseConfig()
	if dbType := getenv("DB_TYPE"); dbType != "" {
		dbConfig.Type = strings.ToLower(dbType)
	}
	switch dbConfig.Type {
	case DatabaseMongo:
		dbConfig.URI = getOrDefault(getenv, "MONGODB_URI", dbConfig.URI)
		dbConfig.Name = getOrDefault(getenv, "MONGODB_DATABASE", dbConfig.Name)
	case DatabaseMemory:
		dbConfig.URI = ""
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (want %q or %q)", dbConfig.Type, DatabaseMongo, DatabaseMemory)
	}

	config := &Config{
		Server:         serverConfig,
		Database:       dbConfig,
		JWTSecret:      getenv("JWT_SECRET"),
		RedisURL:       getenv("REDIS_URL"),
		AllowedOrigins: []string{"*"},
		Debug:          getenv("DEBUG") == "true",
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if origins := getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, origin)
			}
		}
	}

	return config, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getOrDefault(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}
