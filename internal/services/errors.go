package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
	ErrorInternal     ErrorCode = "internal"
)

// ServiceError carries a code the HTTP layer maps to a status. Sentinel
// values below are compared with errors.Is.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

var (
	// ErrDuplicateIdentity is returned when registering an email that already exists.
	ErrDuplicateIdentity = NewConflictError("email already registered")
	// ErrInvalidCredentials is returned for any failed login.
	ErrInvalidCredentials = NewUnauthorizedError("invalid email or password")
	// ErrIncompleteSubmission means the answers do not cover every question exactly once.
	ErrIncompleteSubmission = NewInvalidError("all questions must be answered exactly once")
	// ErrAssessmentNotFound is returned for an unknown assessment type id or code.
	ErrAssessmentNotFound = NewNotFoundError("assessment not found")
	// ErrResponseNotFound is returned when a response does not exist or belongs to another user.
	ErrResponseNotFound = NewNotFoundError("response not found")
	// ErrUserNotFound is returned when the session user no longer exists.
	ErrUserNotFound = NewNotFoundError("user not found")
	// ErrClassificationNotFound means no severity band contains the total score.
	ErrClassificationNotFound = &ServiceError{Code: ErrorInternal, Message: "no severity level matches score"}
	// ErrAmbiguousClassification means more than one severity band contains the total score.
	ErrAmbiguousClassification = &ServiceError{Code: ErrorInternal, Message: "overlapping severity levels match score"}
	// ErrPersistence wraps storage failures during an atomic write.
	ErrPersistence = &ServiceError{Code: ErrorInternal, Message: "persistence failure"}
)
