package errors

import (
	"errors"
	"strings"

	"github.com/randalmurphal/relstage/ci"
	"github.com/randalmurphal/relstage/config"
	rshttp "github.com/randalmurphal/relstage/http"
)

// IsAuthError checks if an error is authentication-related.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotAuthenticated) || rshttp.IsUnauthorized(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "bad credentials") ||
		strings.Contains(errStr, "401")
}

// IsConnectionError checks if an error is connection-related.
// This includes TLS errors and network connectivity issues.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrConnectionFailed) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "x509")
}

// IsPermissionError checks if an error is permission-related.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrPermissionDenied) || rshttp.IsForbidden(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "forbidden") || strings.Contains(errStr, "403")
}

// IsConfigError reports errors the operator fixes by changing configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, config.ErrMissingCredential) ||
		errors.Is(err, config.ErrInvalid) ||
		errors.Is(err, ci.ErrUnknownProvider)
}

// IsRunError reports errors caused by the state of the CI run itself rather
// than by relstage or its configuration.
func IsRunError(err error) bool {
	return errors.Is(err, ci.ErrRunFailed) ||
		errors.Is(err, ci.ErrTimeout) ||
		errors.Is(err, ci.ErrNotFound) ||
		errors.Is(err, ci.ErrArtifactExpired)
}
