package main

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-ingest/internal/config"
	"github.com/jonathan/resume-ingest/internal/docstore"
	"github.com/jonathan/resume-ingest/internal/localtext"
	"github.com/jonathan/resume-ingest/internal/ocr"
	"github.com/jonathan/resume-ingest/internal/pipeline"
	"github.com/jonathan/resume-ingest/internal/profilestore"
)

// app bundles the collaborators every command builds the same way.
type app struct {
	cfg         *config.Config
	store       *profilestore.Store
	coordinator *pipeline.Coordinator
}

// buildApp wires the resolver, extractor, store and coordinator from the
// environment. The caller must Close the returned app.
func buildApp(ctx context.Context) (*app, error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resolver, err := docstore.NewS3Resolver(ctx, docstore.Options{
		Endpoint:  cfg.DocStoreEndpoint,
		Region:    cfg.DocStoreRegion,
		Bucket:    cfg.DocStoreBucket,
		AccessKey: cfg.DocStoreAccessKey,
		SecretKey: cfg.DocStoreSecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create document resolver: %w", err)
	}

	var extractor ocr.TextExtractor
	switch cfg.ExtractorMode {
	case config.ModeLocal:
		extractor = localtext.NewExtractor(cfg.OCRTimeout)
	default:
		extractor, err = ocr.NewClient(ocr.Options{
			Endpoint: cfg.OCREndpoint,
			APIKey:   cfg.OCRAPIKey,
			Model:    cfg.OCRModel,
			Timeout:  cfg.OCRTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create OCR client: %w", err)
		}
	}

	store, err := profilestore.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	coordinator, err := pipeline.New(pipeline.Options{
		Resolver:   resolver,
		Extractor:  extractor,
		Store:      store,
		MaxRetries: &cfg.MaxRetries,
		Backoff:    cfg.Backoff,
		ResolveTTL: cfg.ResolveTTL,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}

	return &app{cfg: cfg, store: store, coordinator: coordinator}, nil
}

// Close releases the database pool.
func (a *app) Close() {
	a.store.Close()
}
