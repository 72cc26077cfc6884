package dto

import (
	"net/http"
	"strings"
)

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "INVALID_TOKEN"
	ErrCodeTokenRevoked = "TOKEN_REVOKED"
)

// Resource and workflow error codes
const (
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeAlreadyExists        = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidState         = "INVALID_STATE"
	ErrCodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	ErrCodeExternalService      = "EXTERNAL_SERVICE_ERROR"
)

// InternalErrorMessage is shown to users for errors without a domain code
const InternalErrorMessage = "오류가 발생했습니다"

// ErrorCodeHTTPStatus maps error codes that do not follow the naming
// conventions handled by GetHTTPStatus
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	ErrCodeTokenExpired:   http.StatusUnauthorized,
	ErrCodeTokenInvalid:   http.StatusUnauthorized,
	ErrCodeTokenRevoked:   http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	"ACCOUNT_DEACTIVATED": http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	"EMAIL_EXISTS":             http.StatusConflict,
	"TEAM_NOT_EMPTY":           http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeConfirmationRequired: http.StatusUnprocessableEntity,
	"STATUS_UNCHANGED":          http.StatusUnprocessableEntity,
	"NOT_EXTRACTABLE":           http.StatusUnprocessableEntity,
	"MISSING_PHONE":             http.StatusUnprocessableEntity,
	"MISSING_CLAWBACK_DATE":     http.StatusUnprocessableEntity,
	"UNSUPPORTED_CONTENT":       http.StatusUnprocessableEntity,

	ErrCodeExternalService: http.StatusBadGateway,
	"OCR_DISABLED":         http.StatusServiceUnavailable,
	"PRINTING_DISABLED":    http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes missing from ErrorCodeHTTPStatus are classified by name:
// *_NOT_FOUND is 404, INVALID_* is 400, DUPLICATE_* is 409, and any other
// domain rule violation is 422.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "INVALID_"), code == "NO_FILES", code == "FILE_TOO_LARGE":
		return http.StatusBadRequest
	case strings.HasPrefix(code, "DUPLICATE_"):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
