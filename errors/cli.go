package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/relstage/ci"
	"github.com/randalmurphal/relstage/config"
	rshttp "github.com/randalmurphal/relstage/http"
	"github.com/randalmurphal/relstage/stage"
)

// CLIError wraps an error with user-friendly context and suggestions.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message is a user-friendly description of what went wrong
	Message string

	// Suggestion is an actionable hint for the user
	Suggestion string

	// Details provides additional context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// ErrorMessenger provides customizable error messages.
// Each method returns a message and a suggestion.
type ErrorMessenger interface {
	MissingCredentialMessage() (message, suggestion string)
	InvalidConfigMessage(key string) (message, suggestion string)
	AuthErrorMessage(service string) (message, suggestion string)
	PermissionDeniedMessage(service string) (message, suggestion string)
	RateLimitedMessage(service string) (message, suggestion string)
	ConnectionErrorMessage(serverURL string) (message, suggestion string)
	TLSErrorMessage(serverURL string) (message, suggestion string)
	RunNotFoundMessage(workflow, commit string) (message, suggestion string)
	RunTimeoutMessage(workflow, commit string) (message, suggestion string)
	RunFailedMessage(workflow string, conclusion ci.Conclusion) (message, suggestion string)
	ArtifactNotFoundMessage(name string) (message, suggestion string)
	ArtifactExpiredMessage() (message, suggestion string)
	ExtractionFailedMessage(archive string) (message, suggestion string)
	NoOutputMessage(artifact string) (message, suggestion string)
	NotInGitRepoMessage() (message, suggestion string)
}

// DefaultMessenger provides default error messages.
type DefaultMessenger struct{}

func (m DefaultMessenger) MissingCredentialMessage() (string, string) {
	return "No CI API token is configured.",
		"Export RELSTAGE_TOKEN (or PUBLIC_ARTIFACTS_TOKEN) with read access to Actions artifacts or pipeline jobs."
}

func (m DefaultMessenger) InvalidConfigMessage(key string) (string, string) {
	return fmt.Sprintf("Invalid value for %s.", key),
		"Run 'relstage config show' to see where each value comes from."
}

func (m DefaultMessenger) AuthErrorMessage(service string) (string, string) {
	return fmt.Sprintf("%s rejected the API token.", serviceName(service)),
		"Check that the token has not expired or been revoked."
}

func (m DefaultMessenger) PermissionDeniedMessage(service string) (string, string) {
	return fmt.Sprintf("The API token cannot read this project on %s.", serviceName(service)),
		"Grant the token read access to workflow runs and artifacts."
}

func (m DefaultMessenger) RateLimitedMessage(service string) (string, string) {
	return fmt.Sprintf("%s rate limit exceeded.", serviceName(service)),
		"Wait for the limit to reset or raise --poll-interval."
}

func (m DefaultMessenger) ConnectionErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("Cannot connect to %s", serverURL),
		"Check that:\n  - The base URL is correct\n  - Your network connection is working"
}

func (m DefaultMessenger) TLSErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("TLS/certificate error connecting to %s", serverURL),
		"Check that the server certificate is valid."
}

func (m DefaultMessenger) RunNotFoundMessage(workflow, commit string) (string, string) {
	return fmt.Sprintf("No %q run exists for commit %s.", workflow, shortSHA(commit)),
		"Check that the commit was pushed and that --workflow matches the workflow name."
}

func (m DefaultMessenger) RunTimeoutMessage(workflow, commit string) (string, string) {
	return fmt.Sprintf("The %q run for commit %s did not finish in time.", workflow, shortSHA(commit)),
		"Raise --timeout or check whether the run is stuck in the queue."
}

func (m DefaultMessenger) RunFailedMessage(workflow string, conclusion ci.Conclusion) (string, string) {
	return fmt.Sprintf("The %q run finished with conclusion %q.", workflow, conclusion),
		"Fix the build and re-run the workflow before preparing a release."
}

func (m DefaultMessenger) ArtifactNotFoundMessage(name string) (string, string) {
	return fmt.Sprintf("The run did not upload an artifact named %q.", name),
		"Check the upload step of the workflow and the package version."
}

func (m DefaultMessenger) ArtifactExpiredMessage() (string, string) {
	return "The build artifact has expired.",
		"Re-run the workflow to produce fresh artifacts."
}

func (m DefaultMessenger) ExtractionFailedMessage(archive string) (string, string) {
	return fmt.Sprintf("Could not extract %s.", archive),
		"Check that unzip is installed and the artifact is a valid zip archive."
}

func (m DefaultMessenger) NoOutputMessage(artifact string) (string, string) {
	return fmt.Sprintf("Artifact %q did not contain the expected files.", artifact),
		"Check --package against the files the workflow packs."
}

func (m DefaultMessenger) NotInGitRepoMessage() (string, string) {
	return "Could not read the commit or remote from git.",
		"Run from a git checkout or pass --commit and --remote explicitly."
}

// WrapConfig configures error wrapping behavior.
type WrapConfig struct {
	Messenger ErrorMessenger
	ServerURL string
}

// Option configures WrapConfig.
type Option func(*WrapConfig)

// WithMessenger sets a custom error messenger.
func WithMessenger(m ErrorMessenger) Option {
	return func(c *WrapConfig) {
		c.Messenger = m
	}
}

// WithServerURL names the API endpoint used in connection messages.
func WithServerURL(url string) Option {
	return func(c *WrapConfig) {
		c.ServerURL = url
	}
}

func getConfig(opts []Option) *WrapConfig {
	cfg := &WrapConfig{
		Messenger: DefaultMessenger{},
		ServerURL: "the CI service",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Wrap turns a pipeline error into operator guidance. Errors it does not
// recognize are returned unchanged. The original error stays reachable
// through errors.Is and errors.As.
func Wrap(err error, opts ...Option) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	cfg := getConfig(opts)
	m := cfg.Messenger

	guide := func(msg, suggestion string) error {
		return &CLIError{Err: err, Message: msg, Suggestion: suggestion, Details: err.Error()}
	}

	var (
		fieldErr    *config.FieldError
		notFound    *ci.NotFoundError
		timeout     *ci.TimeoutError
		runFailed   *ci.RunFailedError
		extraction  *stage.ExtractionError
		noOutput    *stage.VerificationError
		apiErr      *rshttp.APIError
		ambiguous   *ci.AmbiguousArtifactError
		duplicate   *stage.DuplicateFileError
		unknownHost = errors.Is(err, ci.ErrUnknownProvider)
	)

	switch {
	case errors.Is(err, config.ErrMissingCredential):
		return guide(m.MissingCredentialMessage())
	case errors.As(err, &fieldErr):
		return guide(m.InvalidConfigMessage(fieldErr.Key))
	case unknownHost:
		return guide(m.InvalidConfigMessage(config.KeyProvider))
	case errors.As(err, &runFailed):
		return guide(m.RunFailedMessage(runFailed.Workflow, runFailed.Conclusion))
	case errors.As(err, &timeout):
		return guide(m.RunTimeoutMessage(timeout.Query.Workflow, timeout.Query.CommitSHA))
	case errors.As(err, &notFound):
		if notFound.Kind == "artifact" {
			return guide(m.ArtifactNotFoundMessage(notFound.Name))
		}
		return guide(m.RunNotFoundMessage(notFound.Name, notFound.CommitSHA))
	case errors.Is(err, ci.ErrArtifactExpired):
		return guide(m.ArtifactExpiredMessage())
	case errors.As(err, &ambiguous):
		return guide(m.ArtifactNotFoundMessage(ambiguous.Name))
	case errors.As(err, &extraction):
		return guide(m.ExtractionFailedMessage(extraction.Archive))
	case errors.As(err, &noOutput):
		return guide(m.NoOutputMessage(noOutput.Artifact))
	case errors.As(err, &duplicate):
		return guide(m.NoOutputMessage(duplicate.Name))
	case errors.As(err, &apiErr):
		return wrapAPIError(err, apiErr, m)
	}

	if wrapped := WrapAuthError(err, opts...); wrapped != err {
		return wrapped
	}
	return WrapConnectionError(err, cfg.ServerURL, opts...)
}

func wrapAPIError(err error, apiErr *rshttp.APIError, m ErrorMessenger) error {
	var msg, suggestion string
	var sentinel error
	switch {
	case rshttp.IsUnauthorized(apiErr):
		msg, suggestion = m.AuthErrorMessage(apiErr.Service)
		sentinel = ErrNotAuthenticated
	case rshttp.IsForbidden(apiErr):
		msg, suggestion = m.PermissionDeniedMessage(apiErr.Service)
		sentinel = ErrPermissionDenied
	case rshttp.IsRateLimited(apiErr):
		msg, suggestion = m.RateLimitedMessage(apiErr.Service)
	default:
		return err
	}
	return &CLIError{
		Err:        joinSentinel(sentinel, err),
		Message:    msg,
		Suggestion: suggestion,
		Details:    err.Error(),
	}
}

// joinSentinel keeps both the CLI sentinel and the original chain reachable.
func joinSentinel(sentinel, err error) error {
	if sentinel == nil {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// WrapAuthError wraps authentication-related errors with helpful guidance.
// It inspects the error text for failures that bypass the API error type,
// such as rejected OAuth token exchanges.
func WrapAuthError(err error, opts ...Option) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	m := getConfig(opts).Messenger

	if strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "bad credentials") ||
		strings.Contains(errStr, "401") {
		msg, suggestion := m.AuthErrorMessage("")
		return &CLIError{
			Err:        joinSentinel(ErrNotAuthenticated, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	if strings.Contains(errStr, "forbidden") || strings.Contains(errStr, "403") {
		msg, suggestion := m.PermissionDeniedMessage("")
		return &CLIError{
			Err:        joinSentinel(ErrPermissionDenied, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	return err
}

// WrapConnectionError wraps connection-related errors with helpful guidance.
func WrapConnectionError(err error, serverURL string, opts ...Option) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	m := getConfig(opts).Messenger

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp") {
		msg, suggestion := m.ConnectionErrorMessage(serverURL)
		return &CLIError{
			Err:        joinSentinel(ErrConnectionFailed, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	if strings.Contains(errStr, "certificate") || strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") {
		msg, suggestion := m.TLSErrorMessage(serverURL)
		return &CLIError{
			Err:        joinSentinel(ErrConnectionFailed, err),
			Message:    msg,
			Details:    err.Error(),
			Suggestion: suggestion,
		}
	}

	return err
}

// NewNotInGitRepoError creates an error for when git cannot supply the
// commit or remote.
func NewNotInGitRepoError(cause error, opts ...Option) error {
	msg, suggestion := getConfig(opts).Messenger.NotInGitRepoMessage()
	cliErr := &CLIError{
		Err:        joinSentinel(ErrNotInGitRepo, cause),
		Message:    msg,
		Suggestion: suggestion,
	}
	if cause != nil {
		cliErr.Details = cause.Error()
	}
	return cliErr
}

func serviceName(service string) string {
	switch service {
	case "github":
		return "GitHub"
	case "gitlab":
		return "GitLab"
	case "":
		return "The CI service"
	default:
		return service
	}
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
