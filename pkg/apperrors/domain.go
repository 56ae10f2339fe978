package apperrors

import (
	"net/http"
)

// =========================================================================
// Generic factories (wrap repository errors)
// =========================================================================

// ErrNotFound turns a repository miss into a 404.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// =========================================================================
// Matching
// =========================================================================

// ErrJobNotFound is returned for whole-call failures: a batch or ranking
// request whose job does not exist.
func ErrJobNotFound(jobID uint) *AppError {
	return New(CodeJobNotFound, "matching", "Job not found", http.StatusNotFound).
		WithDetails(map[string]uint{"job_id": jobID})
}

func ErrCandidateNotFound(candidateID uint) *AppError {
	return New(CodeCandidateNotFound, "matching", "Candidate not found", http.StatusNotFound).
		WithDetails(map[string]uint{"candidate_id": candidateID})
}

// ErrNoCandidates is reported by the ranking view when there is nothing to rank.
func ErrNoCandidates() *AppError {
	return New(CodeNoCandidates, "matching", "No candidates found", http.StatusNotFound)
}

// ErrPersistence reports a failed matching transaction. Nothing from the batch
// was written.
func ErrPersistence(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "matching", "Failed to persist match results", http.StatusInternalServerError)
}

// ErrQueueUnavailable is returned when a rescoring task cannot be enqueued.
func ErrQueueUnavailable(err error) *AppError {
	return Wrap(err, CodeQueueUnavailable, "matching", "Match queue unavailable", http.StatusServiceUnavailable)
}

// --- Profiles ---

var ErrCandidateAlreadyExists = New(
	CodeAlreadyExists,
	"profile",
	"Candidate with this email already exists",
	http.StatusConflict,
)

var ErrJobTitleRequired = New(
	CodeValidationFailed,
	"profile",
	"Job title is required",
	http.StatusBadRequest,
)
