package gameanalytics

import (
	"errors"

	"github.com/SebastienMelki/gameanalytics/internal/schema"
)

// Sentinel errors returned by StartSession.
var (
	ErrEmptyUserID   = errors.New("gameanalytics: user id is required")
	ErrHandshake     = errors.New("gameanalytics: init handshake failed")
	ErrSessionClosed = errors.New("gameanalytics: session ended before the handshake completed")
	ErrClosed        = errors.New("gameanalytics: client is closed")
)

// ErrorSeverity indicates how critical a reported error is.
type ErrorSeverity int

const (
	// SeverityDebug is informational.
	SeverityDebug ErrorSeverity = iota
	// SeverityWarning means an event was dropped; the SDK keeps operating.
	SeverityWarning
	// SeverityCritical means a batch could not be delivered.
	SeverityCritical
)

// String returns the lowercase severity name.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error codes for categorization.
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeNetworkError     = "NETWORK_ERROR"
	ErrCodeServerError      = "SERVER_ERROR"
	ErrCodeRejected         = "REJECTED"
	ErrCodeUnknownUser      = "UNKNOWN_USER"
)

// SDKError is a diagnostic reported through the logger and registered
// ErrorCallbacks. It never surfaces from Track or EndSession.
type SDKError struct {
	Code     string
	Message  string
	Severity ErrorSeverity

	// UserID is the user the failing operation belonged to, if any.
	UserID string
	// Violations lists every schema violation of a VALIDATION_FAILED error.
	Violations schema.Violations

	err error
}

// Error implements the error interface.
func (e *SDKError) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport error, if any.
func (e *SDKError) Unwrap() error {
	return e.err
}
