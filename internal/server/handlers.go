package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-ingest/internal/pipeline"
	"github.com/jonathan/resume-ingest/internal/types"
)

// Error kinds surfaced to callers. Everything below the coordinator is
// absorbed into a degraded-but-successful result; only these two reach the
// caller as failures.
const (
	KindValidationError  = "ValidationError"
	KindPersistenceError = "PersistenceError"
)

// IngestRequest represents the request body for /ingest.
type IngestRequest struct {
	SubjectID   string `json:"subject_id" validate:"required,uuid"`
	DocumentRef string `json:"document_ref" validate:"required"`
}

// IngestResponse represents a successful /ingest response. Degraded
// results are still successes: the caller never has to branch on
// "extraction failed".
type IngestResponse struct {
	Success  bool                   `json:"success"`
	Resume   *types.ExtractedResume `json:"resume"`
	Degraded bool                   `json:"degraded"`
}

// ErrorBody carries a classified failure.
type ErrorBody struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// ErrorResponse represents a failed /ingest response. Resume is set on
// persistence failures so the caller can retry the write without
// re-running extraction.
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Error   ErrorBody              `json:"error"`
	Resume  *types.ExtractedResume `json:"resume,omitempty"`
}

// handleIngest runs the full ingestion pipeline for one document.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.validationFailure(w, "could not parse request body as JSON")
		return
	}

	if err := s.validate.Struct(req); err != nil {
		s.validationFailure(w, err.Error())
		return
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		s.validationFailure(w, "subject_id is not a valid UUID")
		return
	}

	result, err := s.ingester.Ingest(r.Context(), subjectID, req.DocumentRef)
	if err != nil {
		var perr *pipeline.PersistenceError
		if errors.As(err, &perr) {
			s.jsonResponse(w, http.StatusBadGateway, ErrorResponse{
				Error:  ErrorBody{Kind: KindPersistenceError, Detail: perr.Error()},
				Resume: perr.Resume,
			})
			return
		}
		log.Printf("ingest failed for subject %s: %v", subjectID, err)
		s.jsonResponse(w, http.StatusInternalServerError, ErrorResponse{
			Error: ErrorBody{Kind: "InternalError", Detail: err.Error()},
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, IngestResponse{
		Success:  true,
		Resume:   result.Resume,
		Degraded: result.Resume.Degraded,
	})
}

// handleGetResume returns the stored structured resume for a subject.
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	subjectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.validationFailure(w, "invalid subject ID format")
		return
	}

	resume, err := s.profiles.GetResume(r.Context(), subjectID)
	if err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, ErrorResponse{
			Error: ErrorBody{Kind: "InternalError", Detail: err.Error()},
		})
		return
	}
	if resume == nil {
		s.jsonResponse(w, http.StatusNotFound, ErrorResponse{
			Error: ErrorBody{Kind: "NotFound", Detail: "no parsed resume for subject"},
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, IngestResponse{
		Success:  true,
		Resume:   resume,
		Degraded: resume.Degraded,
	})
}

// validationFailure rejects a request before any pipeline stage runs.
func (s *Server) validationFailure(w http.ResponseWriter, detail string) {
	s.jsonResponse(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorBody{Kind: KindValidationError, Detail: detail},
	})
}
