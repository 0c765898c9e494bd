package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-ingest/internal/queue"
)

var (
	workerCount int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume ingestion jobs from the queue",
	Long:  `Start a RabbitMQ consumer that processes queued ingestion jobs with a fixed-size worker pool. Runs until interrupted.`,
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerCount, "workers", 0, "Number of concurrent workers (overrides WORKER_COUNT)")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	defer a.Close()

	if err := a.cfg.ValidateQueue(); err != nil {
		return err
	}

	workers := a.cfg.WorkerCount
	if workerCount != 0 {
		workers = workerCount
	}

	consumer, err := queue.NewConsumer(queue.Options{
		URL:       a.cfg.AMQPURL,
		QueueName: a.cfg.QueueName,
		Workers:   workers,
	}, a.coordinator)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
