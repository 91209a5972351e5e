package api

import (
	"github.com/osvaldoandrade/visiongo/pkg/domain"
)

// Response is the outcome of one request execution. It is immutable once built.
type Response[T any] struct {
	status domain.Status
	value  T
	err    error
	raw    string
	ok     bool
}

func Success[T any](status domain.Status, v T) Response[T] {
	return Response[T]{status: status, value: v, ok: true}
}

// Failure builds an unsuccessful response. cause is usually a *ServiceError or
// an *UnmarshalError.
func Failure[T any](status domain.Status, cause error) Response[T] {
	if cause == nil {
		cause = &ServiceError{Code: status.Code, Description: status.Description, Details: status.Details}
	}
	return Response[T]{status: status, err: cause}
}

func (r Response[T]) withRaw(raw string) Response[T] {
	r.raw = raw
	return r
}

func (r Response[T]) IsSuccessful() bool { return r.ok }

func (r Response[T]) Status() domain.Status { return r.status }

// Err is nil on success.
func (r Response[T]) Err() error { return r.err }

// Raw is the response document as received, empty for responses built by hand.
func (r Response[T]) Raw() string { return r.raw }

// Get returns the value of a successful response. On a failure it panics with
// *InvalidResponseAccessError; check IsSuccessful first or use Value.
func (r Response[T]) Get() T {
	if !r.ok {
		panic(&InvalidResponseAccessError{Code: r.status.Code, Description: r.status.Description})
	}
	return r.value
}

// Value returns the value or the failure cause.
func (r Response[T]) Value() (T, error) {
	if !r.ok {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}
