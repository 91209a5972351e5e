package tracing

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ContextWithRemoteParent continues a trace started by another process, such
// as a script that exports TRACEPARENT before running the CLI.
func ContextWithRemoteParent(ctx context.Context, traceParent, traceState string) context.Context {
	carrier := propagation.MapCarrier{}
	if v := strings.TrimSpace(traceParent); v != "" {
		carrier.Set("traceparent", v)
	}
	if v := strings.TrimSpace(traceState); v != "" {
		carrier.Set("tracestate", v)
	}
	if len(carrier) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// InjectHeaders writes traceparent and tracestate for the span in ctx into h.
// Baggage never leaves for the prediction service.
func InjectHeaders(ctx context.Context, h http.Header) {
	if h == nil {
		return
	}
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(h))
}
