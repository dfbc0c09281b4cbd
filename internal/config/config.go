package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxUploadSize int64
	AllowOrigins  []string

	// Logging configuration
	LogFormat string
	LogLevel  string

	// Database configuration
	DatabaseURL string

	// Blob storage configuration
	StorageBackend string // "file" or "s3"
	UploadDir      string

	// S3 settings, used when StorageBackend is "s3"
	S3Endpoint        string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3Bucket          string
	S3Region          string
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file. Using environment variables.")
	}

	config := &Config{
		Port:          getEnvInt("PORT", 8080),
		ReadTimeout:   time.Duration(getEnvInt("READ_TIMEOUT", 15)) * time.Second,
		WriteTimeout:  time.Duration(getEnvInt("WRITE_TIMEOUT", 30)) * time.Second,
		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_SIZE", 10*1024*1024)),
		AllowOrigins:  getEnvStringSlice("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),

		LogFormat: getEnvString("LOG_FORMAT", "text"),
		LogLevel:  getEnvString("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("POSTGRES_DB_URL"),

		StorageBackend: getEnvString("STORAGE_BACKEND", "file"),
		UploadDir:      getEnvString("UPLOAD_DIR", "./data"),

		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3AccessKeySecret: os.Getenv("S3_ACCESS_KEY_SECRET"),
		S3Bucket:          getEnvString("S3_BUCKET", "invoices"),
		S3Region:          getEnvString("S3_REGION", "us-east-1"),
	}

	validateConfig(config)

	return config, nil
}

// validateConfig logs warnings for missing critical configuration
func validateConfig(config *Config) {
	if config.DatabaseURL == "" {
		log.Println("Warning: POSTGRES_DB_URL is not set. Database connections will fail.")
	}

	if config.StorageBackend == "s3" && (config.S3Endpoint == "" || config.S3AccessKeyID == "") {
		log.Println("Warning: S3 storage selected but S3 settings are incomplete. PDF uploads will fail.")
	}
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvStringSlice gets a string slice from a comma-separated environment variable
func getEnvStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	return strings.Split(valueStr, ",")
}
