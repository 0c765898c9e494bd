package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-ingest/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the ingestion pipeline and stored-resume lookups as REST endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	a, err := buildApp(context.Background())
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	defer a.Close()

	port := a.cfg.Port
	if servePort != 0 {
		port = servePort
	}

	srv := server.New(server.Config{
		Port:         port,
		WriteTimeout: a.cfg.IngestDeadline(),
	}, a.coordinator, a.store)
	return srv.Start()
}
