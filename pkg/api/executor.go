package api

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/metrics"
	"github.com/osvaldoandrade/visiongo/pkg/domain"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrMalformedEnvelope means the body was not JSON or carried no status.
var ErrMalformedEnvelope = errors.New("response has no status envelope")

const (
	outcomeSuccess   = "success"
	outcomeService   = "service_failure"
	outcomeUnmarshal = "unmarshal_failure"
	outcomeTransport = "transport_error"
)

// Executor runs requests on a Transport. It holds no per-call state and is
// safe for concurrent use.
type Executor struct {
	transport Transport
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*Executor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

func NewExecutor(t Transport, opts ...Option) *Executor {
	e := &Executor{
		transport: t,
		logger:    slog.Default(),
		tracer:    otel.Tracer("visiongo/api"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Logger() *slog.Logger { return e.logger }

// Execute runs req once. The error is non-nil only when no status envelope was
// obtained (*TransportError, wrapping ctx errors) or the body could not be
// encoded. Service and unmarshal failures come back as a failed Response.
func Execute[T any](ctx context.Context, e *Executor, req Request[T]) (Response[T], error) {
	name := requestName(req)
	method, url := req.Method(), req.URL()

	ctx, span := e.tracer.Start(ctx, "visiongo.request."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("visiongo.request", name),
			attribute.String("http.method", method),
			attribute.String("http.url", url),
		),
	)
	defer span.End()

	start := e.now()
	resp, outcome, err := execute(ctx, e, req, name, method, url)
	elapsed := e.now().Sub(start)

	metrics.RequestsTotal.WithLabelValues(name, outcome).Inc()
	metrics.RequestLatencySeconds.WithLabelValues(name).Observe(elapsed.Seconds())

	switch outcome {
	case outcomeTransport:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("request transport failed", "request", name, "method", method, "url", url, "err", err)
		return resp, err
	case outcomeSuccess:
		span.SetAttributes(attribute.Int("visiongo.status_code", int(resp.Status().Code)))
	default:
		span.SetAttributes(attribute.Int("visiongo.status_code", int(resp.Status().Code)))
		span.SetStatus(codes.Error, resp.Status().Description)
		e.logger.Warn("request failed", "request", name, "outcome", outcome,
			"code", int(resp.Status().Code), "description", resp.Status().Description)
	}
	e.logger.Debug("request executed", "request", name, "method", method, "url", url,
		"code", int(resp.Status().Code), "outcome", outcome, "duration", elapsed)
	return resp, nil
}

func execute[T any](ctx context.Context, e *Executor, req Request[T], name, method, url string) (Response[T], string, error) {
	body, err := req.Body()
	if err != nil {
		return Response[T]{}, outcomeTransport, errors.Wrapf(err, "encode %s body", name)
	}

	raw, err := e.transport.Do(ctx, method, url, body)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return Response[T]{}, outcomeTransport, &TransportError{Method: method, URL: url, Err: err}
	}

	if !gjson.ValidBytes(raw) {
		return Response[T]{}, outcomeTransport, &TransportError{Method: method, URL: url, Err: ErrMalformedEnvelope}
	}
	doc := gjson.ParseBytes(raw)
	statusNode := doc.Get("status")
	if !statusNode.IsObject() {
		return Response[T]{}, outcomeTransport, &TransportError{Method: method, URL: url, Err: ErrMalformedEnvelope}
	}
	status, err := domain.ParseStatus(statusNode)
	if err != nil {
		return Response[T]{}, outcomeTransport, &TransportError{Method: method, URL: url, Err: errors.Wrap(ErrMalformedEnvelope, err.Error())}
	}
	metrics.ServiceStatusTotal.WithLabelValues(strconv.Itoa(int(status.Code))).Inc()

	if !status.Code.IsSuccess() {
		cause := &ServiceError{Code: status.Code, Description: status.Description, Details: status.Details}
		return Failure[T](status, cause).withRaw(doc.Raw), outcomeService, nil
	}

	v, err := req.Unmarshal(doc)
	if err != nil {
		cause := &UnmarshalError{Request: name, Err: err}
		failed := domain.Status{Code: status.Code, Description: cause.Error()}
		return Failure[T](failed, cause).withRaw(doc.Raw), outcomeUnmarshal, nil
	}
	return Success(status, v).withRaw(doc.Raw), outcomeSuccess, nil
}

// Future is the pending result of ExecuteAsync.
type Future[T any] struct {
	done chan struct{}
	resp Response[T]
	err  error
}

// ExecuteAsync starts req on its own goroutine.
func ExecuteAsync[T any](ctx context.Context, e *Executor, req Request[T]) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.resp, f.err = Execute(ctx, e, req)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the call completes or ctx ends. Giving up on ctx does not
// cancel the call; cancel the context passed to ExecuteAsync for that.
func (f *Future[T]) Await(ctx context.Context) (Response[T], error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return Response[T]{}, &TransportError{Err: ctx.Err()}
	}
}

// ExecuteAll runs reqs concurrently, at most limit at a time when limit > 0.
// Responses keep the order of reqs. The first transport error cancels the
// remaining calls and is returned.
func ExecuteAll[T any](ctx context.Context, e *Executor, reqs []Request[T], limit int) ([]Response[T], error) {
	out := make([]Response[T], len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		g.Go(func() error {
			resp, err := Execute(gctx, e, req)
			if err != nil {
				return err
			}
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
