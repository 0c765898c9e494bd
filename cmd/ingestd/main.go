// Package main provides the entry point for the resume ingestion service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ingestd",
	Short: "Resume ingestion service",
	Long:  "Ingestd resolves stored resume documents, extracts their text, parses the text into structured profile data, and persists the result. It can run as an HTTP API, a queue worker, or a one-shot CLI.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
