package objectstore

import (
	"errors"
	"fmt"
)

// Status classifies the outcome of a store request.
type Status int

const (
	StatusUnknown Status = iota
	StatusOK
	StatusNotFound
	StatusForbidden
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not found"
	case StatusForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// StatusError carries the classified status of a failed store request.
type StatusError struct {
	Op     string
	Key    string
	Status Status
	Err    error
}

func (e *StatusError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Key, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Status, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewStatusError wraps err with the given status. A nil err yields nil.
func NewStatusError(op, key string, status Status, err error) error {
	if err == nil {
		return nil
	}
	return &StatusError{Op: op, Key: key, Status: status, Err: err}
}

// StatusOf returns the status carried by err. A nil error is StatusOK and
// an unclassified error is StatusUnknown.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return StatusUnknown
}

func IsNotFound(err error) bool {
	return StatusOf(err) == StatusNotFound
}

func IsForbidden(err error) bool {
	return StatusOf(err) == StatusForbidden
}
