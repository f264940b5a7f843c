package batch

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures in the generation pipeline.
type ErrorKind string

const (
	// KindValidation means the batch input was malformed. Raised before
	// any provider call; the caller can fix the input and resubmit.
	KindValidation ErrorKind = "validation"

	// KindProviderUnavailable means submit failed at the transport or
	// auth layer. The worker falls back to the next provider.
	KindProviderUnavailable ErrorKind = "provider_unavailable"

	// KindTimeout means the poll attempt budget ran out without a
	// terminal state. Treated identically to a provider failure by the
	// fallback loop.
	KindTimeout ErrorKind = "timeout"

	// KindProviderFailure means the provider explicitly reported a
	// failed generation.
	KindProviderFailure ErrorKind = "provider_failure"

	// KindUnitExhausted means every provider in the fallback chain
	// failed for one unit. The unit fails; the batch continues.
	KindUnitExhausted ErrorKind = "unit_exhausted"

	// KindBatchFatal means something broke outside the per-unit
	// try/fallback scope, e.g. a worker crashed before producing any
	// result.
	KindBatchFatal ErrorKind = "batch_fatal"
)

// Error is a classified pipeline error.
type Error struct {
	Kind     ErrorKind
	Provider string
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	var s string
	switch {
	case e.Provider != "" && e.Err != nil:
		s = fmt.Sprintf("%s [%s]: %s: %v", e.Kind, e.Provider, e.Msg, e.Err)
	case e.Provider != "":
		s = fmt.Sprintf("%s [%s]: %s", e.Kind, e.Provider, e.Msg)
	case e.Err != nil:
		s = fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	default:
		s = fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError classifies an underlying error.
func WrapError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the ErrorKind from err, or KindBatchFatal for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindBatchFatal
}

// IsValidation reports whether err is a pre-flight validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
