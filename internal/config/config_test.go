package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:           8080,
		DatabaseURL:    "postgres://localhost/ingest",
		ExtractorMode:  ModeService,
		OCREndpoint:    "https://ocr.example/v1/extract",
		DocStoreBucket: "resumes",
		MaxRetries:     2,
		Backoff:        2 * time.Second,
		AMQPURL:        "amqp://localhost",
		WorkerCount:    3,
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ingest")

	cfg := FromEnv()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ModeService, cfg.ExtractorMode)
	assert.Equal(t, "mistral-ocr-latest", cfg.OCRModel)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Backoff)
	assert.Equal(t, 15*time.Minute, cfg.ResolveTTL)
	assert.Equal(t, "resume_ingest", cfg.QueueName)
	assert.Equal(t, 3, cfg.WorkerCount)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EXTRACTOR_MODE", "local")
	t.Setenv("EXTRACT_BACKOFF", "500ms")
	t.Setenv("EXTRACT_MAX_RETRIES", "5")

	cfg := FromEnv()
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ModeLocal, cfg.ExtractorMode)
	assert.Equal(t, 500*time.Millisecond, cfg.Backoff)
	assert.Equal(t, 5, cfg.MaxRetries)
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("EXTRACT_BACKOFF", "soon")

	cfg := FromEnv()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.Backoff)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Valid", func(*Config) {}, ""},
		{"Missing database URL", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"Missing bucket", func(c *Config) { c.DocStoreBucket = "" }, "DOCSTORE_BUCKET"},
		{"Service mode without endpoint", func(c *Config) { c.OCREndpoint = "" }, "OCR_ENDPOINT"},
		{"Unknown extractor mode", func(c *Config) { c.ExtractorMode = "cloud" }, "EXTRACTOR_MODE"},
		{"Negative retries", func(c *Config) { c.MaxRetries = -1 }, "EXTRACT_MAX_RETRIES"},
		{"Local mode without endpoint is fine", func(c *Config) {
			c.ExtractorMode = ModeLocal
			c.OCREndpoint = ""
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIngestDeadline(t *testing.T) {
	cfg := validConfig()
	cfg.OCRTimeout = 60 * time.Second

	// 3 attempts of 60s, 2 backoffs of 2s, plus headroom.
	assert.Equal(t, 3*60*time.Second+4*time.Second+30*time.Second, cfg.IngestDeadline())

	cfg.MaxRetries = 0
	assert.Equal(t, 60*time.Second+30*time.Second, cfg.IngestDeadline())
}

func TestValidateQueue(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.ValidateQueue())

	cfg.AMQPURL = ""
	assert.Error(t, cfg.ValidateQueue())

	cfg = validConfig()
	cfg.WorkerCount = 0
	assert.Error(t, cfg.ValidateQueue())
}
