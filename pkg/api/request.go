// Package api executes typed requests against the prediction service.
//
// A request supplies its method, URL, body and the routine that turns a
// success payload into its result. Execute owns everything else: the call,
// reading the status envelope, routing failures and boxing the outcome in a
// Response.
package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Transport performs one HTTP call and returns the raw response body.
// Implementations must honour ctx cancellation.
type Transport interface {
	Do(ctx context.Context, method, url string, body []byte) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, method, url string, body []byte) ([]byte, error)

func (f TransportFunc) Do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	return f(ctx, method, url, body)
}

// Request is a single call whose success payload decodes into T. Requests are
// immutable values and may be executed any number of times.
type Request[T any] interface {
	Method() string
	URL() string
	// Body is nil for requests without one.
	Body() ([]byte, error)
	// Unmarshal only runs on a success status. payload is the whole document.
	Unmarshal(payload gjson.Result) (T, error)
}

// Named lets a request choose the label used in logs, spans and metrics.
type Named interface {
	Name() string
}

func requestName(req any) string {
	if n, ok := req.(Named); ok {
		return n.Name()
	}
	name := fmt.Sprintf("%T", req)
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "*")
}
