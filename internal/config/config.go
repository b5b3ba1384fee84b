package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath     string
	HTTPAddr         string
	AdminTokenSecret string

	// LLM Config (optional; a heuristic normalizer runs without it)
	GeminiAPIKey string
	LLMModel     string

	// Retailer Config (optional; the HTML fallback runs without it)
	RetailerAPIBaseURL string
	RetailerAPIKey     string
	RetailerSiteURL    string
	RetailerSlug       string

	DefaultPostalCode string
	LocationLookupURL string

	SKUCacheTTL    time.Duration
	SolveTimeLimit time.Duration
	BatchPenalty   float64
	LogLevel       string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	databasePath := os.Getenv("TANDEM_DB_PATH")
	if databasePath == "" {
		databasePath = "tandem.db"
	}

	httpAddr := os.Getenv("TANDEM_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	adminTokenSecret := os.Getenv("TANDEM_ADMIN_TOKEN_SECRET")
	if adminTokenSecret == "" {
		return nil, fmt.Errorf("TANDEM_ADMIN_TOKEN_SECRET environment variable not set")
	}

	llmModel := os.Getenv("TANDEM_LLM_MODEL")
	if llmModel == "" {
		llmModel = "gemini-2.0-flash"
	}

	defaultPostal := os.Getenv("TANDEM_DEFAULT_POSTAL_CODE")
	if defaultPostal == "" {
		defaultPostal = "10001"
	}

	skuCacheTTL, err := durationFromEnv("TANDEM_SKU_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	solveTimeLimit, err := durationFromEnv("TANDEM_SOLVE_TIME_LIMIT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	batchPenalty := 1e-4
	if raw := os.Getenv("TANDEM_BATCH_PENALTY"); raw != "" {
		batchPenalty, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("TANDEM_BATCH_PENALTY is not a number: %w", err)
		}
	}

	logLevel := os.Getenv("TANDEM_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		DatabasePath:       databasePath,
		HTTPAddr:           httpAddr,
		AdminTokenSecret:   adminTokenSecret,
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		LLMModel:           llmModel,
		RetailerAPIBaseURL: os.Getenv("TANDEM_RETAILER_API_URL"),
		RetailerAPIKey:     os.Getenv("TANDEM_RETAILER_API_KEY"),
		RetailerSiteURL:    os.Getenv("TANDEM_RETAILER_SITE_URL"),
		RetailerSlug:       os.Getenv("TANDEM_RETAILER_SLUG"),
		DefaultPostalCode:  defaultPostal,
		LocationLookupURL:  os.Getenv("TANDEM_LOCATION_LOOKUP_URL"),
		SKUCacheTTL:        skuCacheTTL,
		SolveTimeLimit:     solveTimeLimit,
		BatchPenalty:       batchPenalty,
		LogLevel:           logLevel,
	}, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s is not a duration: %w", key, err)
	}
	return d, nil
}
