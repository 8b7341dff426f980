package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType groups errors into broad categories for logging and metrics.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeAuthorization  ErrorType = "authorization"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeInternal       ErrorType = "internal"
)

// ErrorCode is the machine-readable code clients switch on. Clients must never
// have to pattern-match message prose to classify a failure.
type ErrorCode string

const (
	CodeInvalidInput   ErrorCode = "invalid_input"
	CodeAuthentication ErrorCode = "authentication"
	CodeForbidden      ErrorCode = "forbidden"
	CodeNotFound       ErrorCode = "not_found"
	CodeVotingClosed   ErrorCode = "voting_closed"
	CodeAlreadyVoted   ErrorCode = "already_voted"
	CodeConflict       ErrorCode = "conflict"
	CodeStorage        ErrorCode = "storage"
)

// AppError is a structured application error carried from services up to the
// request boundary, where it is rendered as an HTTP status plus JSON body.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// AsAppError extracts an *AppError from err, or nil if err carries none.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// NewInvalidInputError reports malformed identifiers or request fields.
func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       CodeInvalidInput,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewAuthenticationError reports a bad or missing session token.
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Code:       CodeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError reports a non-admin calling an admin-only operation.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthorization,
		Code:       CodeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewNotFoundError reports an absent amendment, vote, or user.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       CodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewVotingClosedError reports a vote against an amendment whose voting
// window is closed.
func NewVotingClosedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       CodeVotingClosed,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewAlreadyVotedError reports a duplicate vote for the same (user, amendment)
// pair. The prior vote id is surfaced in Details.
func NewAlreadyVotedError(message string, existingVoteID string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       CodeAlreadyVoted,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    map[string]interface{}{"existingVoteId": existingVoteID},
	}
}

// NewConflictError reports a uniqueness conflict such as a duplicate email.
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       CodeConflict,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewStorageError reports a generic persistence failure. No retries happen
// anywhere; the failure surfaces directly to the caller.
func NewStorageError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       CodeStorage,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// ErrorResponse is the JSON error envelope written at the request boundary.
type ErrorResponse struct {
	Error struct {
		Code      ErrorCode              `json:"code"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
