package profilestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-ingest/internal/types"
)

func connectTestStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	store, err := Connect(context.Background(), databaseURL)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestIntegration_PersistAndGetResume(t *testing.T) {
	store := connectTestStore(t)
	ctx := context.Background()
	subjectID := uuid.New()

	resume := &types.ExtractedResume{
		Skills:      []string{"Go", "SQL"},
		Experiences: []types.Experience{{Company: "Acme Corp", Position: "Engineer", Description: "Acme Corp, Engineer"}},
		Education:   []types.Education{{Institution: "MIT", Degree: "BSc", Description: "MIT, BSc"}},
		Projects:    "",
		FullText:    "EXPERIENCE\nAcme Corp, Engineer",
	}

	require.NoError(t, store.Persist(ctx, subjectID, resume, time.Now()))

	got, err := store.GetResume(ctx, subjectID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, resume.Skills, got.Skills)
	assert.Equal(t, resume.FullText, got.FullText)
	assert.False(t, got.Degraded)
}

func TestIntegration_PersistIsUpsert(t *testing.T) {
	store := connectTestStore(t)
	ctx := context.Background()
	subjectID := uuid.New()

	first := &types.ExtractedResume{Skills: []string{"Go"}, FullText: "first"}
	second := &types.ExtractedResume{Skills: []string{"Go", "SQL"}, FullText: "second", Degraded: true}

	require.NoError(t, store.Persist(ctx, subjectID, first, time.Now()))
	require.NoError(t, store.Persist(ctx, subjectID, second, time.Now()))

	got, err := store.GetResume(ctx, subjectID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.FullText)
	assert.True(t, got.Degraded)
}

func TestIntegration_GetResumeMissing(t *testing.T) {
	store := connectTestStore(t)

	got, err := store.GetResume(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}
