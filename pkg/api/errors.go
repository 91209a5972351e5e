package api

import (
	"fmt"

	"github.com/osvaldoandrade/visiongo/pkg/domain"
)

// TransportError is a call that produced no usable envelope: the transport
// failed, the context ended, or the body was not a status-bearing JSON document.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError is a non-success status returned by the service.
type ServiceError struct {
	Code        domain.StatusCode
	Description string
	Details     string
}

func (e *ServiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("service status %d: %s (%s)", e.Code, e.Description, e.Details)
	}
	return fmt.Sprintf("service status %d: %s", e.Code, e.Description)
}

// UnmarshalError is a success payload whose shape the request rejected.
type UnmarshalError struct {
	Request string
	Err     error
}

func (e *UnmarshalError) Error() string {
	return fmt.Sprintf("unmarshal %s: %v", e.Request, e.Err)
}

func (e *UnmarshalError) Unwrap() error { return e.Err }

// InvalidResponseAccessError is raised as a panic when the value of a failed
// response is read. It is a caller bug, not a data condition.
type InvalidResponseAccessError struct {
	Code        domain.StatusCode
	Description string
}

func (e *InvalidResponseAccessError) Error() string {
	return fmt.Sprintf("value read from unsuccessful response: status %d: %s", e.Code, e.Description)
}
