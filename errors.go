package scriptmetric

import (
	"errors"
	"fmt"

	"github.com/hupe1980/scriptmetric/codec"
	"github.com/hupe1980/scriptmetric/value"
)

var (
	// ErrBudgetExceeded is returned when a new bucket's memory charge is
	// rejected. The breaker's own error is wrapped as well.
	ErrBudgetExceeded = errors.New("aggregation memory budget exceeded")

	// ErrClosed is returned by every method called after Close.
	ErrClosed = errors.New("aggregator is closed")

	// ErrNegativeOrdinal is returned for bucket ordinals below zero.
	ErrNegativeOrdinal = errors.New("bucket ordinal must be non-negative")

	// ErrOrdinalOutOfRange is returned for bucket ordinals above MaxOrdinal.
	ErrOrdinalOutOfRange = errors.New("bucket ordinal exceeds MaxOrdinal")

	// ErrNoMapScript is returned by New without a map script.
	ErrNoMapScript = errors.New("map script is required")

	// ErrNilSegment is returned by LeafCollector for a nil segment.
	ErrNilSegment = errors.New("segment must not be nil")

	// ErrSelfReference is matched by self-reference validation failures.
	// Use errors.As with *SelfReferenceError to read the phase label.
	ErrSelfReference = value.ErrSelfReference

	// ErrNotWriteable is matched by serializability validation failures.
	ErrNotWriteable = codec.ErrNotWriteable
)

// SelfReferenceError reports a script-produced structure that contains itself.
type SelfReferenceError = value.SelfReferenceError

// NotWriteableError reports a result the transport codec cannot encode.
type NotWriteableError = codec.NotWriteableError

// Labels attached to self-reference errors, naming the phase whose output
// was rejected.
const (
	LabelMapScript     = "scripted metric aggs map script"
	LabelCombineScript = "scripted metric aggs combine script"
	LabelReduceScript  = "scripted metric aggs reduce script"
)

// OrdinalError annotates a failure with the bucket it happened in.
//
// The original underlying error can be accessed via errors.Unwrap.
type OrdinalError struct {
	Ordinal int64
	cause   error
}

func (e *OrdinalError) Error() string {
	return fmt.Sprintf("bucket %d: %v", e.Ordinal, e.cause)
}

func (e *OrdinalError) Unwrap() error { return e.cause }

func budgetError(ord int64, err error) error {
	return &OrdinalError{Ordinal: ord, cause: fmt.Errorf("%w: %w", ErrBudgetExceeded, err)}
}
