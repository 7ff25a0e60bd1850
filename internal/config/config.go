// Package config loads fetchd host configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the fetchd host configuration.
type Config struct {
	Port      string
	LogLevel  string
	LogPretty bool
	Timeout   time.Duration
	Retries   int
	BatchSize int
}

// Load reads configuration from envFile (if present) and the environment.
func Load(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load configuration file: %w", err)
	}

	timeoutMs, err := getEnvInt("FETCH_TIMEOUT_MS", 5000)
	if err != nil {
		return nil, err
	}
	if timeoutMs <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT_MS must be positive (got %d)", timeoutMs)
	}

	retries, err := getEnvInt("FETCH_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	if retries < 1 {
		return nil, fmt.Errorf("FETCH_RETRIES must be >= 1 (got %d)", retries)
	}

	batchSize, err := getEnvInt("FETCH_BATCH_SIZE", 5)
	if err != nil {
		return nil, err
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("FETCH_BATCH_SIZE must be >= 1 (got %d)", batchSize)
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnv("LOG_PRETTY", "false") == "true",
		Timeout:   time.Duration(timeoutMs) * time.Millisecond,
		Retries:   retries,
		BatchSize: batchSize,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
