// Package config provides configuration loading and validation for the
// ingestion service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Extractor modes.
const (
	ModeService = "service" // remote OCR service
	ModeLocal   = "local"   // in-process PDF/DOCX/HTML/plain extraction
)

// Config holds the service configuration. All values come from the
// environment; a .env file is loaded by the CLI before this runs.
type Config struct {
	Port        int
	DatabaseURL string

	// Extraction
	ExtractorMode string
	OCREndpoint   string
	OCRAPIKey     string
	OCRModel      string
	OCRTimeout    time.Duration

	// Document store
	DocStoreEndpoint  string
	DocStoreRegion    string
	DocStoreBucket    string
	DocStoreAccessKey string
	DocStoreSecretKey string
	ResolveTTL        time.Duration

	// Retry policy
	MaxRetries int
	Backoff    time.Duration

	// Queue consumer
	AMQPURL     string
	QueueName   string
	WorkerCount int
}

// FromEnv builds a Config from environment variables, applying defaults
// for everything optional.
func FromEnv() *Config {
	return &Config{
		Port:        envInt("PORT", 8080),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		ExtractorMode: envString("EXTRACTOR_MODE", ModeService),
		OCREndpoint:   os.Getenv("OCR_ENDPOINT"),
		OCRAPIKey:     os.Getenv("OCR_API_KEY"),
		OCRModel:      envString("OCR_MODEL", "mistral-ocr-latest"),
		OCRTimeout:    envDuration("OCR_TIMEOUT", 60*time.Second),

		DocStoreEndpoint:  os.Getenv("DOCSTORE_ENDPOINT"),
		DocStoreRegion:    envString("DOCSTORE_REGION", "auto"),
		DocStoreBucket:    os.Getenv("DOCSTORE_BUCKET"),
		DocStoreAccessKey: os.Getenv("DOCSTORE_ACCESS_KEY"),
		DocStoreSecretKey: os.Getenv("DOCSTORE_SECRET_KEY"),
		ResolveTTL:        envDuration("RESOLVE_TTL", 15*time.Minute),

		MaxRetries: envInt("EXTRACT_MAX_RETRIES", 2),
		Backoff:    envDuration("EXTRACT_BACKOFF", 2*time.Second),

		AMQPURL:     os.Getenv("AMQP_URL"),
		QueueName:   envString("INGEST_QUEUE", "resume_ingest"),
		WorkerCount: envInt("WORKER_COUNT", 3),
	}
}

// Validate checks that the configuration is usable for running the
// pipeline. Queue settings are only checked by ValidateQueue.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.DocStoreBucket == "" {
		return fmt.Errorf("config error: DOCSTORE_BUCKET is required")
	}

	switch c.ExtractorMode {
	case ModeService:
		if c.OCREndpoint == "" {
			return fmt.Errorf("config error: OCR_ENDPOINT is required in service mode")
		}
	case ModeLocal:
		// No service endpoint needed.
	default:
		return fmt.Errorf("config error: EXTRACTOR_MODE must be %q or %q, got %q", ModeService, ModeLocal, c.ExtractorMode)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("config error: EXTRACT_MAX_RETRIES must be non-negative")
	}
	if c.Backoff < 0 {
		return fmt.Errorf("config error: EXTRACT_BACKOFF must be non-negative")
	}
	return nil
}

// IngestDeadline returns an upper bound on one ingestion: every extraction
// attempt at its full timeout, the backoff between attempts, and headroom
// for resolution and persistence. The HTTP server must keep a response
// writable for at least this long.
func (c *Config) IngestDeadline() time.Duration {
	attempts := time.Duration(c.MaxRetries + 1)
	return attempts*c.OCRTimeout + time.Duration(c.MaxRetries)*c.Backoff + 30*time.Second
}

// ValidateQueue checks the additional settings the queue consumer needs.
func (c *Config) ValidateQueue() error {
	if c.AMQPURL == "" {
		return fmt.Errorf("config error: AMQP_URL is required for the worker")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("config error: WORKER_COUNT must be at least 1")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
