// Package errors turns relstage failures into operator-facing messages.
//
// Core types:
//   - CLIError: Wraps errors with message, suggestion, and details
//   - ErrorMessenger: Interface for customizing error messages
//
// Wrap recognizes configuration errors, CI run errors (not found, timeout,
// failed conclusion), artifact errors, staging errors and API status errors,
// and leaves anything else untouched:
//
//	if err := orch.Execute(ctx); err != nil {
//	    return errors.Wrap(err, errors.WithServerURL(apiURL))
//	}
//
// The wrapped error still matches the original with errors.Is, so callers can
// keep branching on ci.ErrTimeout or stage.ErrNoOutput after wrapping.
package errors
