package streamcluster

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity is returned when the center capacity K is not positive.
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrNilMetric is returned when a cluster is constructed without a metric.
	ErrNilMetric = errors.New("metric must not be nil")

	// ErrNoCenters signals a nearest-center lookup on an empty center set.
	// The insertion discipline makes this unreachable; seeing it means the
	// engine state was corrupted and the engine panics with it.
	ErrNoCenters = errors.New("no cluster centers")
)

// ErrInvalidState indicates a State that cannot be restored.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidState struct {
	Reason string
	cause  error
}

func (e *ErrInvalidState) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid cluster state: %s: %v", e.Reason, e.cause)
	}
	return fmt.Sprintf("invalid cluster state: %s", e.Reason)
}

func (e *ErrInvalidState) Unwrap() error { return e.cause }

func invalidState(format string, args ...any) error {
	return &ErrInvalidState{Reason: fmt.Sprintf(format, args...)}
}
