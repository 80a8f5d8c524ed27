package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies failures so the request boundary can pick a status and a user message.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeInfrastructure ErrorType = "INFRASTRUCTURE_ERROR"
	ErrorTypeAuthentication ErrorType = "AUTHENTICATION_ERROR"
	ErrorTypeAuthorization  ErrorType = "AUTHORIZATION_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeConflict       ErrorType = "CONFLICT_ERROR"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

// Message catalog keys used when an AppError carries no explicit key.
const (
	MsgKeyInfrastructure = "error.infrastructure"
	MsgKeyValidation     = "error.validation"
	MsgKeyAuthentication = "error.authentication"
	MsgKeyAuthorization  = "error.authorization"
	MsgKeyNotFound       = "error.not_found"
	MsgKeyConflict       = "error.conflict"
	MsgKeyInternal       = "error.internal"
)

// Common application errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("resource conflict")
	ErrStoreUnavailable = errors.New("backing store unavailable")
)

// AppError represents an application error with a log message, a catalog key for the user and an HTTP status.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	MessageKey string                 `json:"message_key,omitempty"`
	HTTPCode   int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Component  string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, httpCode int) *AppError {
	return &AppError{
		Type:       errorType,
		Message:    message,
		MessageKey: defaultKey(errorType),
		HTTPCode:   httpCode,
		Details:    make(map[string]interface{}),
	}
}

// WithKey overrides the user-facing catalog key.
func (e *AppError) WithKey(key string) *AppError {
	e.MessageKey = key
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewInfrastructureError is returned when a store or external service cannot serve the request.
// Its message is for the operational log only.
func NewInfrastructureError(message string) *AppError {
	return NewAppError(ErrorTypeInfrastructure, message, http.StatusInternalServerError)
}

func NewAuthenticationError(message string) *AppError {
	return NewAppError(ErrorTypeAuthentication, message, http.StatusUnauthorized)
}

func NewAuthorizationError(message string) *AppError {
	return NewAppError(ErrorTypeAuthorization, message, http.StatusForbidden)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewConflictError(message string) *AppError {
	return NewAppError(ErrorTypeConflict, message, http.StatusConflict)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

func defaultKey(t ErrorType) string {
	switch t {
	case ErrorTypeValidation:
		return MsgKeyValidation
	case ErrorTypeInfrastructure:
		return MsgKeyInfrastructure
	case ErrorTypeAuthentication:
		return MsgKeyAuthentication
	case ErrorTypeAuthorization:
		return MsgKeyAuthorization
	case ErrorTypeNotFound:
		return MsgKeyNotFound
	case ErrorTypeConflict:
		return MsgKeyConflict
	default:
		return MsgKeyInternal
	}
}

// ValidationError is a single field failure. Key is a message catalog key.
type ValidationError struct {
	Field string `json:"field"`
	Key   string `json:"key"`
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s %s", ve.Errors[0].Field, ve.Errors[0].Key)
}

// NewValidationErrors creates a new validation errors instance
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}

// Add records a failure for field.
func (ve *ValidationErrors) Add(field, key string) *ValidationErrors {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Key: key})
	return ve
}

// HasErrors returns true if there are validation errors
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError converts validation errors to an AppError
func (ve *ValidationErrors) ToAppError() *AppError {
	if !ve.HasErrors() {
		return nil
	}

	return NewValidationError("validation failed").
		WithCause(ve).
		WithDetail("validation_errors", ve.Errors)
}

// FieldErrors extracts field failures from err, if any.
func FieldErrors(err error) []ValidationError {
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func isType(err error, t ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == t
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound) || errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsInfrastructure checks if an error is an infrastructure error
func IsInfrastructure(err error) bool {
	return isType(err, ErrorTypeInfrastructure) || errors.Is(err, ErrStoreUnavailable)
}

// IsAuthentication checks if an error is an authentication error
func IsAuthentication(err error) bool {
	return isType(err, ErrorTypeAuthentication) || errors.Is(err, ErrUnauthorized)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return isType(err, ErrorTypeConflict) || errors.Is(err, ErrConflict)
}

// HTTPStatus maps err to a response status, defaulting to 500.
func HTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok && appErr.HTTPCode != 0 {
		return appErr.HTTPCode
	}
	return http.StatusInternalServerError
}
