package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the transport package.
var (
	ErrEmptyBatch          = errors.New("empty batch")
	ErrRequestFailed       = errors.New("request failed")
	ErrRateLimited         = errors.New("rate limiter wait aborted")
	ErrInvalidInitResponse = errors.New("invalid init response")
)

// RejectionDetail is a single reason GameAnalytics gave for rejecting an event.
type RejectionDetail struct {
	ErrorType string `json:"error_type"`
	Path      string `json:"path"`
}

// Rejection describes one rejected event of a batch.
type Rejection struct {
	Errors []RejectionDetail `json:"errors"`
	Event  map[string]any    `json:"event"`
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       []byte
	Rejections []Rejection
}

func newStatusError(status int, body []byte) *StatusError {
	e := &StatusError{StatusCode: status, Body: body}

	var rejections []Rejection
	if err := json.Unmarshal(body, &rejections); err == nil {
		for _, r := range rejections {
			if len(r.Errors) > 0 {
				e.Rejections = append(e.Rejections, r)
			}
		}
	}
	return e
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if len(e.Rejections) == 0 {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}

	var reasons []string
	for _, r := range e.Rejections {
		for _, d := range r.Errors {
			reasons = append(reasons, d.ErrorType+" at "+d.Path)
		}
	}
	return fmt.Sprintf("server rejected %d event(s) with status %d: %s",
		len(e.Rejections), e.StatusCode, strings.Join(reasons, ", "))
}

// Rejected reports whether the server rejected specific events, as opposed
// to failing the request as a whole.
func (e *StatusError) Rejected() bool {
	return len(e.Rejections) > 0
}
