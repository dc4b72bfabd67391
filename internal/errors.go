package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidTitle     ErrorCode = "INVALID_TITLE"
	ErrCodeInvalidPoints    ErrorCode = "INVALID_STORY_POINTS"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"

	ErrCodeTaskNotFound         ErrorCode = "TASK_NOT_FOUND"
	ErrCodeTaskClosed           ErrorCode = "TASK_CLOSED"
	ErrCodeUnknownStage         ErrorCode = "UNKNOWN_STAGE"
	ErrCodeUnknownCategory      ErrorCode = "UNKNOWN_CATEGORY"
	ErrCodeRejectOutsideTesting ErrorCode = "REJECT_OUTSIDE_TESTING"

	ErrCodeForbiddenCategoryMove ErrorCode = "FORBIDDEN_CATEGORY_MOVE"
	ErrCodeForbiddenStageMove    ErrorCode = "FORBIDDEN_STAGE_MOVE"
	ErrCodeForbiddenReject       ErrorCode = "FORBIDDEN_REJECT"
	ErrCodeForbiddenManageTasks  ErrorCode = "FORBIDDEN_MANAGE_TASKS"
	ErrCodeMissingCapability     ErrorCode = "MISSING_CAPABILITY"

	ErrCodeStorageConflict    ErrorCode = "STORAGE_CONFLICT"
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	ErrCodeProjectNotFound        ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeForbiddenProjectAccess ErrorCode = "FORBIDDEN_PROJECT_ACCESS"
	ErrCodeForbiddenTaskAccess    ErrorCode = "FORBIDDEN_TASK_ACCESS"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {

			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches app errors by code so sentinels compare equal to fresh copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of e carrying cause. Sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewUnprocessableError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewStorageUnavailableError wraps a datastore failure. The request is aborted and
// the surrounding unit of work rolled back.
func NewStorageUnavailableError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeStorageUnavailable,
		Message:    "storage unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

var (
	ErrTaskNotFound         = NewNotFoundError("task not found", ErrCodeTaskNotFound)
	ErrTaskClosed           = NewUnprocessableError("task is closed and accepts no further transitions", ErrCodeTaskClosed)
	ErrUnknownStage         = NewValidationError("unknown stage", ErrCodeUnknownStage)
	ErrUnknownCategory      = NewValidationError("unknown category", ErrCodeUnknownCategory)
	ErrRejectOutsideTesting = NewUnprocessableError("only testing tasks can be rejected", ErrCodeRejectOutsideTesting)

	ErrForbiddenCategoryMove = NewForbiddenError("not allowed to change task category", ErrCodeForbiddenCategoryMove)
	ErrForbiddenStageMove    = NewForbiddenError("not allowed to change task stage", ErrCodeForbiddenStageMove)
	ErrForbiddenReject       = NewForbiddenError("not allowed to reject testing tasks", ErrCodeForbiddenReject)
	ErrForbiddenManageTasks  = NewForbiddenError("not allowed to manage tasks", ErrCodeForbiddenManageTasks)
	ErrMissingCapability     = NewForbiddenError("insufficient permissions", ErrCodeMissingCapability)

	ErrStorageConflict    = NewConflictError("task was modified concurrently, reload and retry", ErrCodeStorageConflict)
	ErrStorageUnavailable = NewStorageUnavailableError(nil)

	ErrProjectNotFound        = NewNotFoundError("project not found", ErrCodeProjectNotFound)
	ErrForbiddenProjectAccess = NewForbiddenError("no access to this project", ErrCodeForbiddenProjectAccess)
	ErrForbiddenTaskAccess    = NewForbiddenError("task is not assigned to you", ErrCodeForbiddenTaskAccess)

	ErrUserNotFound       = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRetryable reports whether the caller may retry the request against fresh state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageConflict)
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
