package config

import (
	"fmt"
	"os"
	"strconv"
)

// Store drivers.
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverS3       = "s3"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Database DatabaseConfig
	S3       S3Config
	Cart     CartConfig
	Catalog  CatalogConfig
	Delivery DeliveryConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// StoreConfig selects and configures the snapshot store backend.
type StoreConfig struct {
	Driver string // "file", "postgres", "s3" or "memory"
	Dir    string // file driver: directory holding the snapshot files
}

// DatabaseConfig holds PostgreSQL configuration for the postgres store
// driver.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// S3Config holds AWS S3 configuration for the s3 store driver.
type S3Config struct {
	Bucket string
	Region string
	Prefix string // Key prefix within bucket (e.g., "doorstep/")
}

// CartConfig holds cart engine configuration.
type CartConfig struct {
	ExpiryHours int // snapshot expiry window
}

// CatalogConfig holds the catalogue/backend API configuration.
type CatalogConfig struct {
	BaseURL            string
	Token              string
	RefreshTimeoutSecs int
}

// DeliveryConfig holds the delivery fee table, in minor units (kobo).
type DeliveryConfig struct {
	BaseFee        int64
	BaseDistanceKm float64
	PerKmFee       int64
	CeilingFee     int64
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", StoreDriverFile),
			Dir:    getEnv("STORE_DIR", "data/cart"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "doorstep"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		S3: S3Config{
			Bucket: getEnv("S3_BUCKET", ""),
			Region: getEnv("S3_REGION", "us-east-1"),
			Prefix: getEnv("S3_PREFIX", "doorstep/"),
		},
		Cart: CartConfig{
			ExpiryHours: getEnvAsInt("CART_EXPIRY_HOURS", 24),
		},
		Catalog: CatalogConfig{
			BaseURL:            getEnv("CATALOG_BASE_URL", "http://localhost:9000"),
			Token:              getEnv("CATALOG_TOKEN", ""),
			RefreshTimeoutSecs: getEnvAsInt("TOKEN_REFRESH_TIMEOUT", 10),
		},
		Delivery: DeliveryConfig{
			BaseFee:        getEnvAsInt64("DELIVERY_BASE_FEE", 50000),
			BaseDistanceKm: getEnvAsFloat("DELIVERY_BASE_DISTANCE_KM", 2),
			PerKmFee:       getEnvAsInt64("DELIVERY_PER_KM_FEE", 30000),
			CeilingFee:     getEnvAsInt64("DELIVERY_CEILING_FEE", 250000),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.Dir == "" {
			return fmt.Errorf("store directory is required for the file driver")
		}
	case StoreDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for the postgres driver")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required for the postgres driver")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required for the postgres driver")
		}
		if c.Database.MaxConnections < 1 {
			return fmt.Errorf("database max connections must be at least 1")
		}
		if c.Database.MinConnections < 1 {
			return fmt.Errorf("database min connections must be at least 1")
		}
		if c.Database.MinConnections > c.Database.MaxConnections {
			return fmt.Errorf("database min connections cannot exceed max connections")
		}
	case StoreDriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required for the s3 driver")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required for the s3 driver")
		}
	case StoreDriverMemory:
		// Nothing to validate; snapshots die with the process.
	default:
		return fmt.Errorf("invalid store driver: %s (must be file, postgres, s3 or memory)", c.Store.Driver)
	}

	if c.Cart.ExpiryHours < 1 {
		return fmt.Errorf("cart expiry must be at least 1 hour")
	}

	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL is required")
	}

	if c.Delivery.BaseFee < 0 || c.Delivery.PerKmFee < 0 || c.Delivery.CeilingFee < 0 {
		return fmt.Errorf("delivery fees cannot be negative")
	}

	if c.Delivery.BaseDistanceKm < 0 {
		return fmt.Errorf("delivery base distance cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as an int64 or returns a default value.
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
