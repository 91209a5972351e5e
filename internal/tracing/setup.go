// Package tracing wires the OpenTelemetry SDK for the client and the fake
// service and carries W3C trace context across HTTP calls.
package tracing

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"
)

const (
	DefaultServiceName = "visiongo"
	defaultEndpoint    = "localhost:4317"
)

type Config struct {
	Enabled     bool
	ServiceName string

	OTLPEndpoint string
	OTLPInsecure bool

	// SampleRatio outside (0, 1] samples everything.
	SampleRatio float64
}

// resolved fills blanks from the standard OTEL_* variables. Explicit config
// wins, except OTEL_EXPORTER_OTLP_INSECURE which overrides when set.
func (c Config) resolved() Config {
	if strings.TrimSpace(c.ServiceName) == "" {
		c.ServiceName = strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME"))
	}
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}

	endpoint := strings.TrimSpace(c.OTLPEndpoint)
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	c.OTLPEndpoint = hostPort(endpoint)
	if c.OTLPEndpoint == "" {
		c.OTLPEndpoint = defaultEndpoint
	}

	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"))); err == nil {
		c.OTLPInsecure = v
	}
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		c.SampleRatio = 1
	}
	return c
}

func (c Config) exporterOptions() []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.OTLPEndpoint)}
	if c.OTLPInsecure {
		return append(opts, otlptracegrpc.WithInsecure())
	}
	return append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
}

// hostPort turns an OTLP URL into the host:port the gRPC exporter dials.
func hostPort(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return strings.TrimSuffix(raw, "/")
}

// Setup installs the global propagator and, when enabled, a tracer provider
// batching spans to OTLP/gRPC. It returns the provider's shutdown func. A
// broken exporter leaves tracing off and is only logged.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	otel.SetTextMapPropagator(propagation.TraceContext{})
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	cfg = cfg.resolved()
	exp, err := otlptracegrpc.New(ctx, cfg.exporterOptions()...)
	if err != nil {
		logger.Warn("span exporter unavailable, tracing off", "endpoint", cfg.OTLPEndpoint, "err", err)
		return noop, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	logger.Debug("tracing on", "service", cfg.ServiceName, "endpoint", cfg.OTLPEndpoint, "sample_ratio", cfg.SampleRatio)
	return tp.Shutdown, nil
}
