package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound           = errors.New("not found")
	ErrCartNotFound       = fmt.Errorf("cart %w", ErrNotFound)
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrGateway            = errors.New("gateway error")
	ErrRateLimited        = errors.New("rate limited")
	ErrSessionUnavailable = errors.New("cart session unavailable")
	ErrNotReady           = errors.New("cart not ready")
	ErrStore              = errors.New("store error")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// GraphQLError is a single entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns extensions.code when the server sets one (e.g. "THROTTLED").
func (e GraphQLError) Code() string {
	if code, ok := e.Extensions["code"].(string); ok {
		return code
	}
	return ""
}

// GraphQLErrors is a non-empty errors array returned alongside (or instead of) data.
// Any response carrying one is a failed operation.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ge := range e {
		msgs = append(msgs, ge.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// UserError is a mutation-level validation failure (cartLinesAdd.userErrors etc).
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// UserErrors is a non-empty userErrors list from a mutation payload.
type UserErrors []UserError

func (e UserErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ue := range e {
		if len(ue.Field) > 0 {
			msgs = append(msgs, strings.Join(ue.Field, ".")+": "+ue.Message)
			continue
		}
		msgs = append(msgs, ue.Message)
	}
	return "user errors: " + strings.Join(msgs, "; ")
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	err := ErrNotFound
	if resource == "cart" {
		err = ErrCartNotFound
	}
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        err,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewUnauthorizedError creates a 401 error for auth failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewGatewayError creates a 502 error for a failed remote operation.
// The remote call itself failed or came back with an errors array; prior local state stays intact.
func NewGatewayError(operation string, err error) *APIError {
	return &APIError{
		Code:       "GATEWAY_ERROR",
		Message:    fmt.Sprintf("%s request failed", operation),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %w", ErrGateway, err),
	}
}

// NewRateLimitError creates a 429 error for rate limiting.
// hint is appended to the message when the server said when to retry.
func NewRateLimitError(service, hint string) *APIError {
	msg := fmt.Sprintf("%s rate limit exceeded, please retry later", service)
	if hint != "" {
		msg += " (" + hint + ")"
	}
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    msg,
		StatusCode: 429,
		Err:        fmt.Errorf("%w: %w", ErrGateway, ErrRateLimited),
	}
}

// NewSessionUnavailableError creates a 503 error: no cart could be created or restored.
func NewSessionUnavailableError(cause error) *APIError {
	err := ErrSessionUnavailable
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrSessionUnavailable, cause)
	}
	return &APIError{
		Code:       "SESSION_UNAVAILABLE",
		Message:    "no cart session could be created or restored",
		StatusCode: 503,
		Err:        err,
	}
}

// NewNotReadyError creates a 409 error for operations issued before the cart is ready.
func NewNotReadyError(state string) *APIError {
	return &APIError{
		Code:       "NOT_READY",
		Message:    fmt.Sprintf("cart is %s", state),
		StatusCode: 409,
		Err:        ErrNotReady,
	}
}

// NewStoreError creates an error for a failed persistent-store read or write.
// Always logged, never escalated past the session layer.
func NewStoreError(operation string, err error) *APIError {
	return &APIError{
		Code:       "STORE_ERROR",
		Message:    fmt.Sprintf("session store %s failed", operation),
		StatusCode: 500,
		Err:        fmt.Errorf("%w: %w", ErrStore, err),
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}
