// Package queue consumes ingestion jobs from RabbitMQ and drives them
// through the pipeline with a fixed-size worker pool.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/jonathan/resume-ingest/internal/pipeline"
)

// Job is the wire shape of one queued ingestion request.
type Job struct {
	SubjectID   string `json:"subject_id"`
	DocumentRef string `json:"document_ref"`
}

// Ingester drives one ingestion request to a terminal state.
type Ingester interface {
	Ingest(ctx context.Context, subjectID uuid.UUID, documentRef string) (*pipeline.Result, error)
}

// Options configures the consumer.
type Options struct {
	URL       string
	QueueName string
	Workers   int
}

// Consumer reads ingestion jobs from a durable queue. Messages are acked
// only after the pipeline reaches a terminal state, so a crashed worker's
// job is redelivered. Malformed messages are rejected without requeue.
type Consumer struct {
	url       string
	queueName string
	workers   int
	ingester  Ingester
}

// NewConsumer creates a queue consumer over an ingester.
func NewConsumer(opts Options, ingester Ingester) (*Consumer, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("queue: URL is required")
	}
	if opts.QueueName == "" {
		return nil, fmt.Errorf("queue: queue name is required")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Consumer{
		url:       opts.URL,
		queueName: opts.QueueName,
		workers:   opts.Workers,
		ingester:  ingester,
	}, nil
}

// Run connects to the broker and processes jobs until ctx is cancelled or
// the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("queue: failed to connect to broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("queue: failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("queue: failed to declare queue: %w", err)
	}

	// Spread deliveries evenly across the pool.
	if err := ch.Qos(c.workers, 0, false); err != nil {
		return fmt.Errorf("queue: failed to set QoS: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queueName,
		"",    // consumer tag
		false, // manual ack: only a terminal pipeline state acknowledges
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue: failed to register consumer: %w", err)
	}

	log.Printf("[queue] consuming %s with %d workers", c.queueName, c.workers)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.worker(ctx, id, deliveries)
		}(i)
	}

	<-ctx.Done()
	_ = ch.Close()
	wg.Wait()
	return ctx.Err()
}

// worker processes deliveries until the channel closes.
func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	for delivery := range deliveries {
		c.handle(ctx, id, delivery)
	}
}

// handle processes one delivery. Exported indirectly through Run; split
// out so tests can exercise the ack/reject decisions without a broker.
func (c *Consumer) handle(ctx context.Context, workerID int, delivery amqp.Delivery) {
	job, err := decodeJob(delivery.Body)
	if err != nil {
		log.Printf("[queue] worker=%d rejecting malformed job: %v", workerID, err)
		_ = delivery.Reject(false)
		return
	}

	subjectID, _ := uuid.Parse(job.SubjectID)
	result, err := c.ingester.Ingest(ctx, subjectID, job.DocumentRef)
	if err != nil {
		// Persistence failures are worth redelivering: extraction is
		// re-run, but the job is not lost.
		log.Printf("[queue] worker=%d ingest failed for subject %s, requeueing: %v", workerID, subjectID, err)
		_ = delivery.Nack(false, true)
		return
	}

	log.Printf("[queue] worker=%d subject=%s done (degraded=%t, attempts=%d)",
		workerID, subjectID, result.Resume.Degraded, result.Attempts)
	_ = delivery.Ack(false)
}

// decodeJob parses and validates a job payload.
func decodeJob(body []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("invalid job format: %w", err)
	}
	if job.DocumentRef == "" {
		return nil, fmt.Errorf("job is missing document_ref")
	}
	if _, err := uuid.Parse(job.SubjectID); err != nil {
		return nil, fmt.Errorf("job has invalid subject_id %q", job.SubjectID)
	}
	return &job, nil
}
