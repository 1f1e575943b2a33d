package szurubooru

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors
var (
	// ErrInvalidConfig indicates an endpoint or client could not be built from the given settings
	ErrInvalidConfig = errors.New("invalid szurubooru configuration")
	// ErrUnsupportedMethod indicates an HTTP verb other than GET, POST, PUT or DELETE
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
	// ErrNotSynchronized indicates local edits conflict with server state
	ErrNotSynchronized = errors.New("resource is not synchronized")
	// ErrFieldNotPresent indicates a field is absent even after a refresh
	ErrFieldNotPresent = errors.New("field not present in resource")
	// ErrInvalidated indicates the resource was deleted or merged away
	ErrInvalidated = errors.New("resource has been invalidated")
	// ErrInvalidValue indicates a value of the wrong shape for a field
	ErrInvalidValue = errors.New("invalid field value")
	// ErrMissingToken indicates an upload response without a token
	ErrMissingToken = errors.New("upload response did not contain a token")
	// ErrAliasesNotSaved indicates a merge went through but the alias names
	// could not be added to the survivor
	ErrAliasesNotSaved = errors.New("merged, but the aliases were not saved")
)

// ConfigError describes a rejected endpoint configuration.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid szurubooru configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid szurubooru configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrInvalidConfig) match any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// APIError represents an error document returned by the szurubooru server.
// Name and Description are empty when the body was not a structured error.
type APIError struct {
	StatusCode  int
	Name        string
	Description string
	Body        string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("szurubooru API error: status %d: %s: %s", e.StatusCode, e.Name, e.Description)
	}
	return fmt.Sprintf("szurubooru API error: status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound checks if the error indicates a missing resource
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound || strings.HasSuffix(e.Name, "NotFoundError")
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// SyncError is returned when local state cannot be reconciled with the server.
type SyncError struct {
	Field  string
	Reason string
}

func (e *SyncError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("resource is not synchronized: %s", e.Reason)
	}
	return fmt.Sprintf("resource is not synchronized: field %q: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrNotSynchronized) match any SyncError.
func (e *SyncError) Is(target error) bool {
	return target == ErrNotSynchronized
}

// IsAPIError reports whether err wraps an APIError with the given server error name.
func IsAPIError(err error, name string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Name == name
}
