package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	APIURL          string        // Upstream figures API base URL
	APIKey          string        // Static API key sent with every request
	AppName         string        // APP-NAME header identifying this consumer
	Port            string        // Service port
	CacheTTL        time.Duration // Upstream response cache TTL
	CacheNamespace  string        // Cache key and tag namespace
	RedisURL        string        // Optional Redis backend; empty means in-memory
	UpstreamTimeout time.Duration // Bound on upstream HTTP calls
	WebhookSecret   string        // Optional shared secret for webhook endpoints
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		APIURL:          getEnv("FIGURES_API_URL", ""),
		APIKey:          getEnv("FIGURES_API_KEY", ""),
		AppName:         getEnv("FIGURES_APP_NAME", "figures-hub"),
		Port:            getEnv("PORT", "8890"),
		CacheTTL:        time.Hour,
		CacheNamespace:  getEnv("CACHE_NAMESPACE", "keyfigures"),
		RedisURL:        getEnv("REDIS_URL", ""),
		UpstreamTimeout: 10 * time.Second,
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
	}

	// Parse CACHE_TTL if provided
	if cacheTTLStr := os.Getenv("CACHE_TTL"); cacheTTLStr != "" {
		duration, err := time.ParseDuration(cacheTTLStr)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL format: %w", err)
		}
		config.CacheTTL = duration
	}

	// Parse UPSTREAM_TIMEOUT if provided
	if timeoutStr := os.Getenv("UPSTREAM_TIMEOUT"); timeoutStr != "" {
		duration, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT format: %w", err)
		}
		config.UpstreamTimeout = duration
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}

	if c.CacheNamespace == "" {
		return fmt.Errorf("CACHE_NAMESPACE cannot be empty")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
