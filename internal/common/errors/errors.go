// Package errors provides standardized error handling for the activities API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Registry errors
const (
	ErrCodeActivityNotFound ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeAlreadySignedUp  ErrorCode = "ALREADY_SIGNED_UP"
	ErrCodeNotSignedUp      ErrorCode = "NOT_SIGNED_UP"
)

// Transport and infrastructure errors
const (
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"

	ErrCodeSeedInvalid            ErrorCode = "SEED_INVALID"
	ErrCodeAuditSchemaFailed      ErrorCode = "AUDIT_SCHEMA_FAILED"
	ErrCodeAuditInsertFailed      ErrorCode = "AUDIT_INSERT_FAILED"
	ErrCodeEventPublishFailed     ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// Kinds. Every StandardError matches exactly one of these with errors.Is.
var (
	ErrNotFound = stderrors.New("not found")
	ErrConflict = stderrors.New("conflict")
	ErrInvalid  = stderrors.New("invalid")
	ErrInternal = stderrors.New("internal")
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match a StandardError against its kind sentinel.
func (e *StandardError) Is(target error) bool {
	return KindOf(e.Code) == target
}

// KindOf maps an error code to its kind sentinel.
func KindOf(code ErrorCode) error {
	switch code {
	case ErrCodeActivityNotFound:
		return ErrNotFound
	case ErrCodeAlreadySignedUp, ErrCodeNotSignedUp:
		return ErrConflict
	case ErrCodeInvalidRequest, ErrCodeSeedInvalid:
		return ErrInvalid
	default:
		return ErrInternal
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewActivityNotFoundError creates a non-retryable lookup error.
func NewActivityNotFoundError(activity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityNotFound,
		Message:   "Activity not found",
		Details:   fmt.Sprintf("activity: %q", activity),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadySignedUpError creates a non-retryable membership conflict.
func NewAlreadySignedUpError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadySignedUp,
		Message:   "Student is already signed up",
		Details:   fmt.Sprintf("activity: %q, email: %q", activity, email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotSignedUpError creates a non-retryable membership conflict.
func NewNotSignedUpError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotSignedUp,
		Message:   "Student is not signed up for this activity",
		Details:   fmt.Sprintf("activity: %q, email: %q", activity, email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSeedInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSeedInvalid,
		Message:   "Activity seed is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditSchemaFailedError reports that audit_log could not be created.
func NewAuditSchemaFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditSchemaFailed,
		Message:   "Audit log schema setup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditInsertFailedError creates a retryable database error.
func NewAuditInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditInsertFailed,
		Message:   "Audit log insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewEventPublishFailedError(target string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventPublishFailed,
		Message:   "Membership event publish failed",
		Details:   fmt.Sprintf("target: %s, error: %s", target, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal server error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus returns the response status for an error code.
func HTTPStatus(code ErrorCode) int {
	switch KindOf(code) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusBadRequest
	case ErrInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeActivityNotFound || strings.Contains(codeStr, "SIGNED_UP"):
		return "REGISTRY"
	case strings.Contains(codeStr, "AUDIT") || strings.Contains(codeStr, "EVENT") || strings.Contains(codeStr, "NOTIFICATION"):
		return "HOOK"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
