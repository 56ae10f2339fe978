package apperrors

// ErrorCode is the machine-readable error code sent to clients.
type ErrorCode string

// Shared, domain-agnostic codes.
const (
	// System and unknown failures
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Business logic (used by the factories)
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Matching
	CodeJobNotFound       ErrorCode = "JOB_NOT_FOUND"
	CodeCandidateNotFound ErrorCode = "CANDIDATE_NOT_FOUND"
	CodeNoCandidates      ErrorCode = "NO_CANDIDATES"
	CodeQueueUnavailable  ErrorCode = "QUEUE_UNAVAILABLE"
)
