package types

import (
	"errors"
	"fmt"
)

// Error kinds reported by Kind.
const (
	KindAuth      = "auth"
	KindParse     = "parse"
	KindTransport = "transport"
	KindSink      = "sink"
	KindUnknown   = "unknown"
)

// AuthError means the login request failed or returned no session cookie.
type AuthError struct {
	Endpoint string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Endpoint, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ParseError means the status page did not have the expected counter table
// shape, or a numeric field could not be parsed.
type ParseError struct {
	// Row is the zero-based index of the offending table row, or -1 when the
	// problem is not tied to a single row.
	Row int
	Err error
}

func (e *ParseError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("parse status page: %v", e.Err)
	}
	return fmt.Sprintf("parse status page row %d: %v", e.Row, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError means a request to the switch failed, timed out or returned a
// non-success status.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SinkError means submitting metric points to the ingestion API failed.
type SinkError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *SinkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sink %s: status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("sink %s: %v", e.URL, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	var (
		authErr      *AuthError
		parseErr     *ParseError
		transportErr *TransportError
		sinkErr      *SinkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &sinkErr):
		return KindSink
	}
	return KindUnknown
}
