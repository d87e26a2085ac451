package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Security settings
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	MaxUploadSizeBytes int64

	// Normalization settings
	DefaultCurrency string

	// Consent settings
	ConsentValidity     time.Duration
	ConsentPurposeCode  string
	ConsentRedirectBase string
	DefaultProviderID   string

	// Aggregator gateway settings
	AggregatorBaseURL      string
	AggregatorClientID     string
	AggregatorClientSecret string
	AggregatorTokenURL     string
	AggregatorTimeout      time.Duration
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from /backend)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	// --- Security & Tokens (Secrets) ---
	jwtSecret := getRequiredEnv("JWT_SECRET")

	accessTokenExpiry := getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute)

	// --- File Size Limits ---
	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	aggregatorBaseURL := getEnv("AGGREGATOR_BASE_URL", "http://localhost:9091")

	// --- Populate the Global Config Struct ---
	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./finlens.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Security
		JWTSecret:          jwtSecret,
		AccessTokenExpiry:  accessTokenExpiry,
		MaxUploadSizeBytes: maxUploadSizeBytes,

		// Normalization
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "INR"),

		// Consent
		ConsentValidity:     getEnvAsDuration("CONSENT_VALIDITY", 365*24*time.Hour),
		ConsentPurposeCode:  getEnv("CONSENT_PURPOSE_CODE", "102"),
		ConsentRedirectBase: getEnv("CONSENT_REDIRECT_BASE", aggregatorBaseURL+"/consent/authorize"),
		DefaultProviderID:   getEnv("DEFAULT_PROVIDER_ID", "AA-SANDBOX"),

		// Aggregator gateway
		AggregatorBaseURL:      aggregatorBaseURL,
		AggregatorClientID:     getEnv("AGGREGATOR_CLIENT_ID", ""),
		AggregatorClientSecret: getEnv("AGGREGATOR_CLIENT_SECRET", ""),
		AggregatorTokenURL:     getEnv("AGGREGATOR_TOKEN_URL", aggregatorBaseURL+"/oauth/token"),
		AggregatorTimeout:      getEnvAsDuration("AGGREGATOR_TIMEOUT", 30*time.Second),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, AggregatorURL=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.AggregatorBaseURL)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start securely.", key)
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
