// Package errors provides categorized error types for the swipe-trader
// system and the mapping from failure kinds to HTTP status codes.
package errors

import (
	"fmt"
	"net/http"

	"github.com/swipe-trader/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryUserInput represents user input errors (4xx)
	CategoryUserInput ErrorCategory = "user_input"
	// CategorySystem represents system errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryProvider represents aggregator/discovery provider errors
	CategoryProvider ErrorCategory = "provider"
	// CategoryStore represents record store errors
	CategoryStore ErrorCategory = "store"
	// CategoryNotFound represents not found errors
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryConflict represents concurrent-write conflicts
	CategoryConflict ErrorCategory = "conflict"
)

// Error codes for the trade and store paths.
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeQuoteUnavailable     = "QUOTE_UNAVAILABLE"
	CodeBuildFailed          = "BUILD_FAILED"
	CodeSubmitFailed         = "SUBMIT_FAILED"
	CodeStoreUnavailable     = "STORE_UNAVAILABLE"
	CodeStoreConflict        = "STORE_CONFLICT"
	CodeDiscoveryUnavailable = "DISCOVERY_UNAVAILABLE"
	CodeTradeInFlight        = "TRADE_IN_FLIGHT"
	CodeNotFound             = "NOT_FOUND"
	CodeInternal             = "INTERNAL_ERROR"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewInvalidInputError creates a validation error for a trade or store input
func NewInvalidInputError(field, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidInput,
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
	}
}

// NewQuoteUnavailableError creates an error for a failed quote request
func NewQuoteUnavailableError(cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       CodeQuoteUnavailable,
		Message:    "swap aggregator could not provide a quote",
		Cause:      cause,
	}
}

// NewBuildFailedError creates an error for a failed swap-transaction build
func NewBuildFailedError(cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       CodeBuildFailed,
		Message:    "swap transaction could not be built",
		Cause:      cause,
	}
}

// NewSubmitFailedError creates an error for a failed sign-and-submit
func NewSubmitFailedError(cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       CodeSubmitFailed,
		Message:    "signed transaction could not be submitted",
		Cause:      cause,
	}
}

// NewStoreUnavailableError creates an error for an unreachable record store
func NewStoreUnavailableError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryStore,
		StatusCode: http.StatusServiceUnavailable,
		Code:       CodeStoreUnavailable,
		Message:    fmt.Sprintf("record store unavailable during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewStoreConflictError creates an error for a lost compare-and-swap write
func NewStoreConflictError(record, account string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryConflict,
		StatusCode: http.StatusConflict,
		Code:       CodeStoreConflict,
		Message:    fmt.Sprintf("concurrent update of %s record for %s", record, account),
		Details: map[string]interface{}{
			"record":  record,
			"account": account,
		},
	}
}

// NewDiscoveryUnavailableError creates an error for a failed discovery call.
// Read paths degrade to fallback data instead of surfacing this to callers.
func NewDiscoveryUnavailableError(cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       CodeDiscoveryUnavailable,
		Message:    "token discovery provider unavailable",
		Cause:      cause,
	}
}

// NewTradeInFlightError creates an error for a rejected concurrent trade
func NewTradeInFlightError(account string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryConflict,
		StatusCode: http.StatusConflict,
		Code:       CodeTradeInFlight,
		Message:    fmt.Sprintf("a trade is already in flight for %s", account),
		Details: map[string]interface{}{
			"account": account,
		},
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	if catErr, ok := err.(*CategorizedError); ok {
		return catErr
	}

	if svcErr, ok := err.(*types.ServiceError); ok {
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       svcErr.Code,
			Message:    svcErr.Message,
			Details:    svcErr.Details,
		}
	}

	return NewInternalError("unexpected error", err)
}

// HasCode reports whether err carries the given error code
func HasCode(err error, code string) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Code == code
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}
