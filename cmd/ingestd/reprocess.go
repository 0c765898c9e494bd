package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-ingest/internal/extract"
	"github.com/jonathan/resume-ingest/internal/profilestore"
	"github.com/jonathan/resume-ingest/internal/segment"
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Re-parse all stored raw resume text",
	Long:  "Re-runs section splitting and entity extraction over every stored raw text and overwrites the structured data. Use after parser improvements; no documents are re-fetched and no OCR is re-run.",
	RunE:  runReprocess,
}

var (
	reprocessConcurrency int
)

func init() {
	reprocessCmd.Flags().IntVar(&reprocessConcurrency, "concurrency", 4, "Number of profiles to re-parse in parallel")
	rootCmd.AddCommand(reprocessCmd)
}

func runReprocess(_ *cobra.Command, _ []string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	store, err := profilestore.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	profiles, err := store.ListRaw(ctx)
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(profiles) == 0 {
		fmt.Println("No stored profiles to reprocess")
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reprocessConcurrency)

	for _, profile := range profiles {
		g.Go(func() error {
			sections := segment.Split(profile.RawText)
			resume := extract.Resume(sections, profile.RawText)
			if err := store.Persist(ctx, profile.SubjectID, resume, time.Now()); err != nil {
				return fmt.Errorf("failed to persist subject %s: %w", profile.SubjectID, err)
			}
			log.Printf("reprocessed subject %s (skills=%d, experiences=%d)",
				profile.SubjectID, len(resume.Skills), len(resume.Experiences))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Reprocessed %d profiles\n", len(profiles))
	return nil
}
