package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-ingest/internal/fallback"
	"github.com/jonathan/resume-ingest/internal/ocr"
	"github.com/jonathan/resume-ingest/internal/types"
)

type fakeResolver struct {
	url   string
	err   error
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, _ time.Duration) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeExtractor struct {
	// results are consumed in order; the last entry repeats.
	results []extractResult
	calls   int
	ctxErr  error
}

type extractResult struct {
	extraction *ocr.Extraction
	err        error
}

func (f *fakeExtractor) Extract(ctx context.Context, _ string) (*ocr.Extraction, error) {
	f.ctxErr = ctx.Err()
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	r := f.results[idx]
	return r.extraction, r.err
}

type fakeStore struct {
	persisted []*types.ExtractedResume
	err       error
}

func (f *fakeStore) Persist(_ context.Context, _ uuid.UUID, resume *types.ExtractedResume, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.persisted = append(f.persisted, resume)
	return nil
}

type testHarness struct {
	coordinator *Coordinator
	resolver    *fakeResolver
	extractor   *fakeExtractor
	store       *fakeStore
	slept       []time.Duration
}

func newHarness(t *testing.T, resolver *fakeResolver, extractor *fakeExtractor, store *fakeStore) *testHarness {
	t.Helper()
	h := &testHarness{resolver: resolver, extractor: extractor, store: store}

	coordinator, err := New(Options{
		Resolver:  resolver,
		Extractor: extractor,
		Store:     store,
		Sleep:     func(d time.Duration) { h.slept = append(h.slept, d) },
		Now:       func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	h.coordinator = coordinator
	return h
}

func okExtraction(text string) extractResult {
	return extractResult{extraction: &ocr.Extraction{Text: text, PageCount: 1}}
}

func TestIngestSuccess(t *testing.T) {
	text := "EXPERIENCE\nAcme Corp, Engineer\n\nEDUCATION\nMIT, BSc"
	h := newHarness(t,
		&fakeResolver{url: "https://signed.example/doc"},
		&fakeExtractor{results: []extractResult{okExtraction(text)}},
		&fakeStore{},
	)

	result, err := h.coordinator.Ingest(context.Background(), uuid.New(), "resumes/abc.pdf")
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, FailureNone, result.Failure)
	assert.Equal(t, 1, result.Attempts)
	assert.False(t, result.Resume.Degraded)
	assert.Equal(t, text, result.Resume.FullText)

	require.Len(t, result.Resume.Experiences, 1)
	assert.Contains(t, result.Resume.Experiences[0].Company, "Acme Corp")
	require.Len(t, result.Resume.Education, 1)
	assert.Contains(t, result.Resume.Education[0].Institution, "MIT")

	require.Len(t, h.store.persisted, 1)
	assert.Same(t, result.Resume, h.store.persisted[0])
	assert.Empty(t, h.slept)
}

func TestIngestRetryBound(t *testing.T) {
	// Service unavailable on every attempt: exactly 3 calls (1 initial + 2
	// retries), then fallback. Never more.
	h := newHarness(t,
		&fakeResolver{url: "https://signed.example/doc"},
		&fakeExtractor{results: []extractResult{{err: &ocr.ServiceUnavailableError{Message: "HTTP status 503"}}}},
		&fakeStore{},
	)

	result, err := h.coordinator.Ingest(context.Background(), uuid.New(), "resumes/abc.pdf")
	require.NoError(t, err)

	assert.Equal(t, 3, h.extractor.calls)
	assert.Equal(t, []time.Duration{DefaultBackoff, DefaultBackoff}, h.slept)
	assert.Equal(t, FailureServiceUnavailable, result.Failure)
	assert.True(t, result.Resume.Degraded)
	assert.Equal(t, fallback.PlaceholderFullText, result.Resume.FullText)
	assert.Equal(t, fallback.PlaceholderSkills(), result.Resume.Skills)
	require.Len(t, h.store.persisted, 1)
}

func TestIngestZeroRetriesConfigurable(t *testing.T) {
	// An explicit zero must disable retrying, not silently fall back to the
	// default. Only a nil MaxRetries selects the default.
	extractor := &fakeExtractor{results: []extractResult{{err: &ocr.ServiceUnavailableError{Message: "HTTP status 503"}}}}
	store := &fakeStore{}

	var slept []time.Duration
	zero := 0
	coordinator, err := New(Options{
		Resolver:   &fakeResolver{url: "https://signed.example/doc"},
		Extractor:  extractor,
		Store:      store,
		MaxRetries: &zero,
		Sleep:      func(d time.Duration) { slept = append(slept, d) },
	})
	require.NoError(t, err)

	result, err := coordinator.Ingest(context.Background(), uuid.New(), "resumes/abc.pdf")
	require.NoError(t, err)

	assert.Equal(t, 1, extractor.calls, "zero retries means one attempt")
	assert.Empty(t, slept)
	assert.Equal(t, FailureServiceUnavailable, result.Failure)
	require.Len(t, store.persisted, 1)
}

func TestNewRejectsNegativeRetries(t *testing.T) {
	negative := -1
	_, err := New(Options{
		Resolver:   &fakeResolver{},
		Extractor:  &fakeExtractor{results: []extractResult{okExtraction("x")}},
		Store:      &fakeStore{},
		MaxRetries: &negative,
	})
	assert.Error(t, err)
}

func TestIngestRecoversAfterTransientFailure(t *testing.T) {
	h := newHarness(t,
		&fakeResolver{url: "https://signed.example/doc"},
		&fakeExtractor{results: []extractResult{
			{err: &ocr.ServiceUnavailableError{Message: "HTTP status 502"}},
			okExtraction("SKILLS\nGo"),
		}},
		&fakeStore{},
	)

	result, err := h.coordinator.Ingest(context.Background(), uuid.New(), "resumes/abc.pdf")
	require.NoError(t, err)

	assert.Equal(t, 2, h.extractor.calls)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, FailureNone, result.Failure)
	assert.False(t, result.Resume.Degraded)
	assert.Equal(t, []string{"Go"}, result.Resume.Skills)
}

func TestIngestResolutionFailure(t *testing.T) {
	h := newHarness(t,
		&fakeResolver{err: fmt.Errorf("document deleted")},
		&fakeExtractor{results: []extractResult{okExtraction("unused")}},
		&fakeStore{},
	)

	result, err := h.coordinator.Ingest(context.Background(), uuid.New(), "resumes/gone.pdf")
	require.NoError(t, err)

	assert.Equal(t, 0, h.extractor.calls)
	assert.Equal(t, FailureResolution, result.Failure)
	assert.True(t, result.Resume.Degraded)
	assert.Equal(t, fallback.PlaceholderFullText, result.Resume.FullText)
	require.Len(t, h.store.persisted, 1)
}

func TestIngestNonRetryableFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected FailureKind
	}{
		{"Invalid input", &ocr.InvalidInputError{Message: "HTTP status 422"}, FailureInvalidInput},
		{"Empty result", ocr.ErrEmptyResult, FailureEmptyResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t,
				&fakeResolver{url: "https://signed.example/doc"},
				&fakeExtractor{results: []extractResult{{err: tt.err}}},
				&fakeStore{},
			)

			result, err := h.coordinator.Ingest(context.Background(), uuid.New(), "resumes/abc.pdf")
			require.NoError(t, err)

			assert.Equal(t, 1, h.extractor.calls, "non-retryable failures must not retry")
			assert.Empty(t, h.slept)
			assert.Equal(t, tt.expected, result.Failure)
			assert.True(t, result.Resume.Degraded)
			require.Len(t, h.store.persisted, 1)
		})
	}
}

func TestIngestPersistenceFailure(t *testing.T) {
	h := newHarness(t,
		&fakeResolver{url: "https://signed.example/doc"},
		&fakeExtractor{results: []extractResult{okExtraction("SKILLS\nGo")}},
		&fakeStore{err: fmt.Errorf("connection reset")},
	)

	result, err := h.coordinator.Ingest(context.Background(), uuid.New(), "resumes/abc.pdf")
	assert.Nil(t, result)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	// The extracted resume rides along so the caller can retry persistence
	// without re-running extraction.
	require.NotNil(t, perr.Resume)
	assert.Equal(t, "SKILLS\nGo", perr.Resume.FullText)
}

func TestIngestSurvivesCallerCancellation(t *testing.T) {
	h := newHarness(t,
		&fakeResolver{url: "https://signed.example/doc"},
		&fakeExtractor{results: []extractResult{okExtraction("SKILLS\nGo")}},
		&fakeStore{},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // caller is already gone

	result, err := h.coordinator.Ingest(ctx, uuid.New(), "resumes/abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.NoError(t, h.extractor.ctxErr, "pipeline context must be detached from caller cancellation")
	require.Len(t, h.store.persisted, 1)
}

func TestNewRequiresCollaborators(t *testing.T) {
	resolver := &fakeResolver{}
	extractor := &fakeExtractor{results: []extractResult{okExtraction("x")}}
	store := &fakeStore{}

	_, err := New(Options{Extractor: extractor, Store: store})
	assert.Error(t, err)
	_, err = New(Options{Resolver: resolver, Store: store})
	assert.Error(t, err)
	_, err = New(Options{Resolver: resolver, Extractor: extractor})
	assert.Error(t, err)
}
