// Package pipeline orchestrates resume ingestion: reference resolution,
// text extraction with retry/backoff, segmentation, entity extraction and
// persistence. It is the only component with side effects beyond reads.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-ingest/internal/docstore"
	"github.com/jonathan/resume-ingest/internal/extract"
	"github.com/jonathan/resume-ingest/internal/fallback"
	"github.com/jonathan/resume-ingest/internal/ocr"
	"github.com/jonathan/resume-ingest/internal/segment"
	"github.com/jonathan/resume-ingest/internal/types"
)

// State identifies one stage of an ingestion request.
type State string

// States of the ingestion state machine. Failed is an absorbing state
// reachable from any stage; fallback synthesis and persistence still run
// after it, so every started ingestion ends with exactly one stored
// resume.
const (
	StatePending    State = "PENDING"
	StateResolving  State = "RESOLVING"
	StateExtracting State = "EXTRACTING"
	StateSegmenting State = "SEGMENTING"
	StatePersisting State = "PERSISTING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// FailureKind classifies why an ingestion fell back.
type FailureKind string

const (
	FailureNone               FailureKind = ""
	FailureResolution         FailureKind = "ResolutionError"
	FailureServiceUnavailable FailureKind = "ServiceUnavailable"
	FailureInvalidInput       FailureKind = "InvalidInput"
	FailureEmptyResult        FailureKind = "EmptyResult"
)

// Retry policy defaults: 1 initial attempt plus MaxRetries retries, with a
// fixed delay between attempts.
const (
	DefaultMaxRetries = 2
	DefaultBackoff    = 2 * time.Second
)

// ProfileStore persists one structured resume per subject.
type ProfileStore interface {
	Persist(ctx context.Context, subjectID uuid.UUID, resume *types.ExtractedResume, parsedAt time.Time) error
}

// PersistenceError reports a failed write distinctly from extraction
// failures. The extracted resume is attached so the caller can retry
// persistence without re-running extraction.
type PersistenceError struct {
	Resume *types.ExtractedResume
	Cause  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist resume: %v", e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Options wires the coordinator's collaborators and policy knobs.
type Options struct {
	Resolver   docstore.Resolver
	Extractor  ocr.TextExtractor
	Store      ProfileStore
	MaxRetries *int          // retries after the initial attempt; nil means DefaultMaxRetries, zero disables retrying
	Backoff    time.Duration // delay between attempts; default 2s
	ResolveTTL time.Duration // validity window for resolved URLs
	Sleep      func(time.Duration)
	Now        func() time.Time
}

// Coordinator drives ingestion requests to a terminal state. Safe for
// concurrent use; each request is processed by a single logical worker
// with no shared mutable state.
type Coordinator struct {
	resolver   docstore.Resolver
	extractor  ocr.TextExtractor
	store      ProfileStore
	maxRetries int
	backoff    time.Duration
	resolveTTL time.Duration
	sleep      func(time.Duration)
	now        func() time.Time
}

// New creates a coordinator. Resolver, Extractor and Store are required.
func New(opts Options) (*Coordinator, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("pipeline: resolver is required")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("pipeline: extractor is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("pipeline: store is required")
	}
	maxRetries := DefaultMaxRetries
	if opts.MaxRetries != nil {
		if *opts.MaxRetries < 0 {
			return nil, fmt.Errorf("pipeline: max retries must be non-negative")
		}
		maxRetries = *opts.MaxRetries
	}
	if opts.Backoff == 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.ResolveTTL == 0 {
		opts.ResolveTTL = docstore.DefaultTTL
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		resolver:   opts.Resolver,
		extractor:  opts.Extractor,
		store:      opts.Store,
		maxRetries: maxRetries,
		backoff:    opts.Backoff,
		resolveTTL: opts.ResolveTTL,
		sleep:      opts.Sleep,
		now:        opts.Now,
	}, nil
}

// Result is the terminal outcome of one ingestion request.
type Result struct {
	Resume   *types.ExtractedResume
	State    State
	Failure  FailureKind
	Attempts int
}

// request tracks the mutable state of one ingestion attempt. It is
// discarded once a terminal state is reached; only the result survives.
type request struct {
	subjectID   uuid.UUID
	documentRef string
	attempt     int
	state       State
}

func (r *request) transition(next State) {
	log.Printf("[pipeline] subject=%s %s -> %s", r.subjectID, r.state, next)
	r.state = next
}

// Ingest drives one request to a terminal state and persists exactly one
// resume. Once started, the pipeline runs to completion even if the caller
// goes away: cancellation of ctx does not abort in-flight retries, so no
// ingestion is left in limbo. Extraction failures of every kind degrade
// into a fallback resume; the only errors returned are persistence
// failures.
func (c *Coordinator) Ingest(ctx context.Context, subjectID uuid.UUID, documentRef string) (*Result, error) {
	// Detach from caller cancellation: the fallback/persist guarantee
	// must hold even after a client disconnect.
	ctx = context.WithoutCancel(ctx)

	req := &request{
		subjectID:   subjectID,
		documentRef: documentRef,
		state:       StatePending,
	}

	req.transition(StateResolving)
	url, err := c.resolver.Resolve(ctx, req.documentRef, c.resolveTTL)
	if err != nil {
		log.Printf("[pipeline] subject=%s resolution failed: %v", subjectID, err)
		req.transition(StateFailed)
		return c.fallbackAndPersist(ctx, req, FailureResolution, "")
	}

	req.transition(StateExtracting)
	extraction, kind := c.extractWithRetry(ctx, req, url)
	if kind != FailureNone {
		req.transition(StateFailed)
		partial := ""
		if extraction != nil {
			partial = extraction.Text
		}
		return c.fallbackAndPersist(ctx, req, kind, partial)
	}

	req.transition(StateSegmenting)
	sections := segment.Split(extraction.Text)
	resume := extract.Resume(sections, extraction.Text)

	req.transition(StatePersisting)
	if err := c.store.Persist(ctx, req.subjectID, resume, c.now()); err != nil {
		return nil, &PersistenceError{Resume: resume, Cause: err}
	}

	req.transition(StateDone)
	return &Result{
		Resume:   resume,
		State:    StateDone,
		Failure:  FailureNone,
		Attempts: req.attempt + 1,
	}, nil
}

// extractWithRetry calls the extraction service up to 1+maxRetries times,
// sleeping between attempts. Only ServiceUnavailable failures re-enter the
// loop; everything else is classified immediately.
func (c *Coordinator) extractWithRetry(ctx context.Context, req *request, url string) (*ocr.Extraction, FailureKind) {
	for {
		extraction, err := c.extractor.Extract(ctx, url)
		if err == nil {
			return extraction, FailureNone
		}

		if ocr.Retryable(err) {
			if req.attempt < c.maxRetries {
				req.attempt++
				log.Printf("[pipeline] subject=%s extraction unavailable, retrying (attempt %d/%d): %v",
					req.subjectID, req.attempt, c.maxRetries, err)
				c.sleep(c.backoff)
				continue
			}
			log.Printf("[pipeline] subject=%s extraction retries exhausted: %v", req.subjectID, err)
			return nil, FailureServiceUnavailable
		}

		if errors.Is(err, ocr.ErrEmptyResult) {
			log.Printf("[pipeline] subject=%s extraction returned no text", req.subjectID)
			return nil, FailureEmptyResult
		}

		log.Printf("[pipeline] subject=%s extraction rejected input: %v", req.subjectID, err)
		return nil, FailureInvalidInput
	}
}

// fallbackAndPersist synthesizes a degraded resume from whatever raw text
// exists and persists it, completing the request's terminal path.
func (c *Coordinator) fallbackAndPersist(ctx context.Context, req *request, kind FailureKind, rawText string) (*Result, error) {
	resume := fallback.Resume(rawText)

	req.transition(StatePersisting)
	if err := c.store.Persist(ctx, req.subjectID, resume, c.now()); err != nil {
		return nil, &PersistenceError{Resume: resume, Cause: err}
	}

	req.transition(StateDone)
	return &Result{
		Resume:   resume,
		State:    StateDone,
		Failure:  kind,
		Attempts: req.attempt + 1,
	}, nil
}
