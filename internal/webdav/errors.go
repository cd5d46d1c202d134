package webdav

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a 404 on download or delete: the snapshot was removed
// out of band.
var ErrNotFound = errors.New("backup file not found on server")

// NetworkError means no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError is a response with a non-success status.
type ProtocolError struct {
	Op         string
	StatusCode int
	StatusText string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.StatusText)
}

// ParseError is a response body that is not the expected XML or JSON.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s failed: unreadable response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
