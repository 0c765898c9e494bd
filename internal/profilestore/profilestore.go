// Package profilestore provides PostgreSQL persistence for extracted
// resumes, keyed by subject identity.
package profilestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-ingest/internal/types"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Persist upserts one subject's resume: the raw recognized text, the
// structured payload as JSONB, the degraded flag and the parse timestamp.
// Writes to different subjects never contend on the same row.
func (s *Store) Persist(ctx context.Context, subjectID uuid.UUID, resume *types.ExtractedResume, parsedAt time.Time) error {
	structured, err := json.Marshal(resume)
	if err != nil {
		return fmt.Errorf("failed to marshal resume: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO resume_profiles (subject_id, raw_text, structured_data, degraded, parsed, parsed_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5)
		 ON CONFLICT (subject_id) DO UPDATE
		 SET raw_text = $2, structured_data = $3, degraded = $4, parsed = TRUE, parsed_at = $5`,
		subjectID, resume.FullText, structured, resume.Degraded, parsedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to persist resume for %s: %w", subjectID, err)
	}
	return nil
}

// GetResume retrieves the structured resume for a subject. Returns nil
// without error when no parsed resume exists.
func (s *Store) GetResume(ctx context.Context, subjectID uuid.UUID) (*types.ExtractedResume, error) {
	var structured []byte
	err := s.pool.QueryRow(ctx,
		`SELECT structured_data FROM resume_profiles WHERE subject_id = $1 AND parsed`,
		subjectID,
	).Scan(&structured)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume for %s: %w", subjectID, err)
	}

	var resume types.ExtractedResume
	if err := json.Unmarshal(structured, &resume); err != nil {
		return nil, fmt.Errorf("failed to decode stored resume for %s: %w", subjectID, err)
	}
	return &resume, nil
}

// RawProfile is one subject's stored raw text, used by reprocessing.
type RawProfile struct {
	SubjectID uuid.UUID
	RawText   string
}

// ListRaw returns the raw text of every parsed profile. Reprocessing runs
// the pure segmentation and extraction stages over these again.
func (s *Store) ListRaw(ctx context.Context) ([]RawProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT subject_id, raw_text FROM resume_profiles WHERE parsed ORDER BY parsed_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw profiles: %w", err)
	}
	defer rows.Close()

	var profiles []RawProfile
	for rows.Next() {
		var p RawProfile
		if err := rows.Scan(&p.SubjectID, &p.RawText); err != nil {
			return nil, fmt.Errorf("failed to scan raw profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
