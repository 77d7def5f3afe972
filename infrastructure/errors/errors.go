// Package errors provides unified error handling for the cache core.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// The ten kinds named by spec §7. Propagation policy (also §7): read misses
// return a nil sentinel, never an error — KeyNotFound is reserved for
// operations that require the key (rename's source, for example).
const (
	ErrCodeKeyNotFound       ErrorCode = "KEY_NOT_FOUND"
	ErrCodeNamespaceNotFound ErrorCode = "NAMESPACE_NOT_FOUND"
	ErrCodeInstanceNotFound  ErrorCode = "INSTANCE_NOT_FOUND"
	ErrCodeQuotaExceeded     ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeMemoryLimit       ErrorCode = "MEMORY_LIMIT"
	ErrCodeTtlExceeded       ErrorCode = "TTL_EXCEEDED"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeAttestationFailed ErrorCode = "ATTESTATION_FAILED"
	ErrCodeNodeUnavailable   ErrorCode = "NODE_UNAVAILABLE"
	ErrCodeInvalidOperation  ErrorCode = "INVALID_OPERATION"
)

// ServiceError represents a structured error with code, message, and HTTP status
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new ServiceError
func New(code ErrorCode, message string, httpStatus int) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error with a ServiceError
func Wrap(code ErrorCode, message string, httpStatus int, err error) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// KeyNotFound is reserved for operations that require the key to exist,
// such as rename's source key (spec §7).
func KeyNotFound(key string) *ServiceError {
	return New(ErrCodeKeyNotFound, "no such key", http.StatusBadRequest).
		WithDetails("key", key)
}

// NamespaceNotFound reports a dispatch against an unknown, non-default namespace.
func NamespaceNotFound(namespace string) *ServiceError {
	return New(ErrCodeNamespaceNotFound, "namespace not found", http.StatusBadRequest).
		WithDetails("namespace", namespace)
}

// InstanceNotFound reports a provisioning lookup against an unknown instance.
func InstanceNotFound(instanceID string) *ServiceError {
	return New(ErrCodeInstanceNotFound, "instance not found", http.StatusBadRequest).
		WithDetails("instance_id", instanceID)
}

// QuotaExceeded reports a plan-limit violation (max_keys, max_ttl_seconds, ...).
func QuotaExceeded(limit string, value, max interface{}) *ServiceError {
	return New(ErrCodeQuotaExceeded, "quota exceeded", http.StatusBadRequest).
		WithDetails("limit", limit).
		WithDetails("value", value).
		WithDetails("max", max)
}

// MemoryLimit reports that eviction could not free enough space for an
// admission (spec §4.2: "single payload > budget").
func MemoryLimit(neededBytes, budgetBytes int64) *ServiceError {
	return New(ErrCodeMemoryLimit, "memory limit exceeded", http.StatusBadRequest).
		WithDetails("needed_bytes", neededBytes).
		WithDetails("budget_bytes", budgetBytes)
}

// TtlExceeded reports a TTL request above the instance's max_ttl_seconds.
func TtlExceeded(requestedSeconds, maxSeconds int64) *ServiceError {
	return New(ErrCodeTtlExceeded, "ttl exceeds instance maximum", http.StatusBadRequest).
		WithDetails("requested_seconds", requestedSeconds).
		WithDetails("max_seconds", maxSeconds)
}

// Unauthorized reports a caller/owner mismatch (RESP unauthenticated state,
// or instance ownership check in provisioning.Delete).
func Unauthorized(message string) *ServiceError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// AttestationFailed wraps a failure refreshing or accepting a TEE attestation blob.
func AttestationFailed(err error) *ServiceError {
	return Wrap(ErrCodeAttestationFailed, "attestation refresh failed", http.StatusBadRequest, err)
}

// NodeUnavailable reports a replication/routing target that is offline or
// whose circuit breaker is open.
func NodeUnavailable(nodeID string, err error) *ServiceError {
	return Wrap(ErrCodeNodeUnavailable, "node unavailable", http.StatusBadRequest, err).
		WithDetails("node_id", nodeID)
}

// InvalidOperation covers wrong-type errors, malformed integers, and TTLs
// over the configured maximum (spec §4.2 failure modes). The RESP layer
// maps messages beginning with "WRONGTYPE" to -WRONGTYPE, others to -ERR.
func InvalidOperation(message string) *ServiceError {
	return New(ErrCodeInvalidOperation, message, http.StatusBadRequest)
}

// ErrCodeRateLimitExceeded is an ambient HTTP-layer concern (not one of the
// core dispatch kinds in spec §7): the control surface's rate limiter rejects
// a caller before any command reaches the engine.
const ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

// RateLimitExceeded reports an HTTP control-surface caller over its request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return New(ErrCodeRateLimitExceeded, "rate limit exceeded", http.StatusTooManyRequests).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// Helper functions

// IsServiceError checks if an error is a ServiceError
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// GetServiceError extracts a ServiceError from an error chain
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// GetHTTPStatus returns the HTTP status code for an error. Per spec §7:
// 401 for Unauthorized, 400 for other core errors, 500 otherwise.
func GetHTTPStatus(err error) int {
	if serviceErr := GetServiceError(err); serviceErr != nil {
		return serviceErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Is reports whether err is a ServiceError carrying the given code.
func Is(err error, code ErrorCode) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}
