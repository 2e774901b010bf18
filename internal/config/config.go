package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Auth token verification configuration
	Auth AuthConfig

	// Payment gateway configuration
	Payment PaymentConfig

	// Pricing engine configuration
	Pricing PricingConfig

	// CORS configuration
	CORS CORSConfig

	// Logging configuration
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// AuthConfig holds token verification configuration.
// Token issuance belongs to the identity service; this backend only verifies.
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// PaymentConfig holds payment gateway configuration
type PaymentConfig struct {
	APIBaseURL     string // Gateway API base URL (overridable for sandbox/tests)
	SecretKey      string // Gateway secret key (SECRET - never expose to client)
	Currency       string // ISO 4217 lowercase, e.g. "eur"
	MaxAmountMinor int64  // Upper bound on a single charge, in minor units
	RequestTimeout time.Duration
}

// PricingConfig holds pricing engine configuration
type PricingConfig struct {
	HourlyRate     float64
	MinimumHours   float64
	SpecialOffers  map[int]float64 // whole-hour count -> discounted total price
	DepositRate    float64         // share of total charged up front
	CommissionRate float64         // platform share of total
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string   // debug, info, warn, error
	SuppressedErrors []string // log entries containing these substrings are dropped
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			TokenExpiry: time.Duration(getEnvAsInt("JWT_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		Payment: PaymentConfig{
			APIBaseURL:     getEnv("STRIPE_API_BASE_URL", "https://api.stripe.com"),
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			Currency:       getEnv("PAYMENT_CURRENCY", "eur"),
			MaxAmountMinor: int64(getEnvAsInt("PAYMENT_MAX_AMOUNT_MINOR", 999900)),
			RequestTimeout: time.Duration(getEnvAsInt("PAYMENT_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Pricing: PricingConfig{
			HourlyRate:     getEnvAsFloat("PRICING_HOURLY_RATE", 22),
			MinimumHours:   getEnvAsFloat("PRICING_MINIMUM_HOURS", 2),
			SpecialOffers:  getEnvAsOfferTable("PRICING_SPECIAL_OFFERS", map[int]float64{3: 60}),
			DepositRate:    getEnvAsFloat("PRICING_DEPOSIT_RATE", 0.20),
			CommissionRate: getEnvAsFloat("PRICING_COMMISSION_RATE", 0.40),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Logging: LoggingConfig{
			Level:            getEnv("LOG_LEVEL", "info"),
			SuppressedErrors: getEnvAsSlice("LOG_SUPPRESSED_ERRORS", nil),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Pricing.HourlyRate <= 0 {
		return fmt.Errorf("PRICING_HOURLY_RATE must be positive")
	}

	if c.Pricing.DepositRate <= 0 || c.Pricing.DepositRate >= 1 {
		return fmt.Errorf("PRICING_DEPOSIT_RATE must be between 0 and 1")
	}

	if c.Pricing.CommissionRate < 0 || c.Pricing.CommissionRate >= 1 {
		return fmt.Errorf("PRICING_COMMISSION_RATE must be between 0 and 1")
	}

	if c.Server.Environment == "production" && c.Payment.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required in production mode")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// getEnvAsOfferTable parses a "hours:price" comma list, e.g. "3:60,5:100".
func getEnvAsOfferTable(key string, defaultValue map[int]float64) map[int]float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	offers := make(map[int]float64)
	for _, pair := range strings.Split(valueStr, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			log.Printf("Invalid offer entry %q for %s, using default table", pair, key)
			return defaultValue
		}
		hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || hours <= 0 {
			log.Printf("Invalid offer hours %q for %s, using default table", parts[0], key)
			return defaultValue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || price <= 0 {
			log.Printf("Invalid offer price %q for %s, using default table", parts[1], key)
			return defaultValue
		}
		offers[hours] = price
	}
	return offers
}
