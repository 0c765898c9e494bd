package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-ingest/internal/observability"
	"github.com/jonathan/resume-ingest/internal/schemas"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion from the command line",
	Long:  "Resolves a stored document, extracts and parses it, persists the structured resume for the subject, and prints the result as JSON.",
	RunE:  runIngest,
}

var (
	ingestSubjectID   string
	ingestDocumentRef string
	ingestOutput      string
	ingestVerbose     bool
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestSubjectID, "subject", "s", "", "Subject UUID to persist the resume under (required)")
	ingestCmd.Flags().StringVarP(&ingestDocumentRef, "ref", "r", "", "Stored document reference, e.g. resumes/abc.pdf (required)")
	ingestCmd.Flags().StringVarP(&ingestOutput, "out", "o", "", "Path to output JSON file (default: stdout)")
	ingestCmd.Flags().BoolVarP(&ingestVerbose, "verbose", "v", false, "Print a formatted summary of the result")

	if err := ingestCmd.MarkFlagRequired("subject"); err != nil {
		panic(fmt.Sprintf("failed to mark subject flag as required: %v", err))
	}
	if err := ingestCmd.MarkFlagRequired("ref"); err != nil {
		panic(fmt.Sprintf("failed to mark ref flag as required: %v", err))
	}

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, _ []string) error {
	subjectID, err := uuid.Parse(ingestSubjectID)
	if err != nil {
		return fmt.Errorf("invalid subject UUID %q: %w", ingestSubjectID, err)
	}

	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.coordinator.Ingest(ctx, subjectID, ingestDocumentRef)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if ingestVerbose {
		observability.NewPrinter(os.Stderr).PrintIngestion(result)
	}

	payload, err := json.MarshalIndent(result.Resume, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal resume: %w", err)
	}

	if err := schemas.ValidateResume(payload); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: Extracted resume failed schema validation: %v\n", err)
	}

	if ingestOutput == "" {
		fmt.Println(string(payload))
		return nil
	}
	if err := os.WriteFile(ingestOutput, payload, 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", ingestOutput, err)
	}

	fmt.Printf("Wrote resume for subject %s to %s (degraded=%t, attempts=%d)\n",
		subjectID, ingestOutput, result.Resume.Degraded, result.Attempts)
	return nil
}
