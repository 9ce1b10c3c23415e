package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeScoring    ErrorType = "scoring"
	ErrorTypeSynthesis  ErrorType = "synthesis"
	ErrorTypeCatalog    ErrorType = "catalog"
	ErrorTypeExternal   ErrorType = "external"
	ErrorTypeInternal   ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Validation Errors
	ErrInvalidInput      = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyConversation = NewDomainError(ErrorTypeValidation, "conversation cannot be empty", nil)

	// Extraction Errors
	ErrExtractionFailed = NewDomainError(ErrorTypeExtraction, "query extraction failed", nil)
	ErrNoUsableFields   = NewDomainError(ErrorTypeExtraction, "extracted query has no usable fields", nil)

	// Scoring Errors
	ErrScoringFailed       = NewDomainError(ErrorTypeScoring, "course scoring failed", nil)
	ErrEmbeddingFailed     = NewDomainError(ErrorTypeScoring, "query embedding failed", nil)
	ErrUnknownCatalogField = NewDomainError(ErrorTypeScoring, "catalog field has no embeddings", nil)

	// Synthesis Errors
	ErrSynthesisFailed = NewDomainError(ErrorTypeSynthesis, "answer synthesis failed", nil)

	// Catalog Errors
	ErrCatalogLoad       = NewDomainError(ErrorTypeCatalog, "catalog load failed", nil)
	ErrEmbeddingMismatch = NewDomainError(ErrorTypeCatalog, "embedding index does not match catalog", nil)

	// External Service Errors
	ErrServiceUnavailable = NewDomainError(ErrorTypeExternal, "external service unavailable", nil)
	ErrServiceTimeout     = NewDomainError(ErrorTypeExternal, "external service timeout", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsExtractionError checks if an error is an extraction error
func IsExtractionError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeExtraction
	}
	return false
}

// IsScoringError checks if an error is a scoring error
func IsScoringError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeScoring
	}
	return false
}

// IsSynthesisError checks if an error is a synthesis error
func IsSynthesisError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeSynthesis
	}
	return false
}

// IsCatalogError checks if an error is a catalog error
func IsCatalogError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeCatalog
	}
	return false
}

// IsExternalError checks if an error is an external service error
func IsExternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeExternal
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapExternal wraps an error as an external service error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
