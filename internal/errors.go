package internal

import (
	"encoding/json"
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
)

type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidPrincipal    ErrorCode = "INVALID_PRINCIPAL"
	ErrCodeInvalidPermission   ErrorCode = "INVALID_PERMISSION_TYPE"
	ErrCodeInvalidAccessLevel  ErrorCode = "INVALID_ACCESS_LEVEL"
	ErrCodeInvalidFolderParent ErrorCode = "INVALID_FOLDER_PARENT"

	ErrCodeFolderNotFound     ErrorCode = "FOLDER_NOT_FOUND"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeDepartmentNotFound ErrorCode = "DEPARTMENT_NOT_FOUND"
	ErrCodePermissionNotFound ErrorCode = "PERMISSION_NOT_FOUND"

	ErrCodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive        ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken        ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked        ErrorCode = "TOKEN_REVOKED"
	ErrCodeInvalidRefreshToken ErrorCode = "INVALID_REFRESH_TOKEN"
	ErrCodeInvalidResetToken   ErrorCode = "INVALID_RESET_TOKEN"

	ErrCodeAccessDenied      ErrorCode = "ACCESS_DENIED"
	ErrCodeFolderCycle       ErrorCode = "FOLDER_CYCLE"
	ErrCodeBrokenHierarchy   ErrorCode = "BROKEN_FOLDER_HIERARCHY"
	ErrCodeDuplicateEmail    ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicateGrant    ErrorCode = "DUPLICATE_GRANT"
	ErrCodeDuplicateDeptName ErrorCode = "DUPLICATE_DEPARTMENT_NAME"
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

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
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

var (
	ErrFolderNotFound     = NewNotFoundError("Folder not found", ErrCodeFolderNotFound)
	ErrUserNotFound       = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrDepartmentNotFound = NewNotFoundError("Department not found", ErrCodeDepartmentNotFound)

	ErrInvalidCredentials  = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive        = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken        = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired        = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrTokenRevoked        = NewUnauthorizedError("Token has been revoked", ErrCodeTokenRevoked)
	ErrInvalidRefreshToken = NewUnauthorizedError("Invalid refresh token", ErrCodeInvalidRefreshToken)
	ErrInvalidResetToken   = NewUnauthorizedError("Invalid or expired reset token", ErrCodeInvalidResetToken)

	ErrAccessDenied      = NewForbiddenError("Insufficient folder permissions", ErrCodeAccessDenied)
	ErrFolderCycle       = NewValidationError("Folder cannot be moved under its own descendant", ErrCodeFolderCycle)
	ErrDuplicateEmail    = NewConflictError("Email is already registered", ErrCodeDuplicateEmail)
	ErrDuplicateGrant    = NewConflictError("Permission is already granted to this principal", ErrCodeDuplicateGrant)
	ErrDuplicateDeptName = NewConflictError("Department name already exists", ErrCodeDuplicateDeptName)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
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
