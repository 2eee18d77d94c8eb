package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a provider failure. It is informational only: no
// caller retries on any kind.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindTimeout      ErrorKind = "timeout"
	KindUnavailable  ErrorKind = "unavailable"
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindMalformed    ErrorKind = "malformed"
	KindCanceled     ErrorKind = "canceled"
	KindDisabled     ErrorKind = "disabled"
	KindUnknown      ErrorKind = "unknown"
)

// ProviderError wraps a failed call to a third-party provider.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError classifies err and wraps it for provider.
func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	if kind == KindNone {
		kind = Classify(err)
	}
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// KindForStatus maps an HTTP status code returned by a provider to an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindUnauthorized
	case status == 404:
		return KindNotFound
	case status == 408 || status == 504:
		return KindTimeout
	case status == 429 || status >= 500:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// Classify derives an ErrorKind from an arbitrary error.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, ErrProviderDisabled) {
		return KindDisabled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindUnavailable
	}
	return KindUnknown
}

// Result is the tagged outcome of a provider call: Ok(value) or Fail(err).
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail wraps a failure.
func Fail[T any](err error) Result[T] { return Result[T]{err: err} }

// From builds a Result from the conventional (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// IsOk reports whether the call succeeded.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Err returns the failure, or nil.
func (r Result[T]) Err() error { return r.err }

// Kind returns the classified failure kind, or KindNone on success.
func (r Result[T]) Kind() ErrorKind { return Classify(r.err) }

// Unwrap returns the conventional (value, error) pair.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// OrElse returns the value on success and fallback otherwise. The boolean
// reports whether the fallback was used.
func (r Result[T]) OrElse(fallback T) (T, bool) {
	if r.err != nil {
		return fallback, true
	}
	return r.value, false
}
