// Package app assembles a ready client from configuration: logger, tracing,
// the shared rate limiter and the transport stack.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/osvaldoandrade/visiongo/internal/backoff"
	"github.com/osvaldoandrade/visiongo/internal/metrics"
	"github.com/osvaldoandrade/visiongo/internal/providers"
	"github.com/osvaldoandrade/visiongo/internal/ratelimit"
	"github.com/osvaldoandrade/visiongo/internal/tracing"
	"github.com/osvaldoandrade/visiongo/internal/transport"
	"github.com/osvaldoandrade/visiongo/pkg/api"
	"github.com/osvaldoandrade/visiongo/pkg/client"
	"github.com/osvaldoandrade/visiongo/pkg/config"
	"github.com/osvaldoandrade/visiongo/pkg/poll"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const clientScope = "client"

type Application struct {
	Config      *config.Config
	Logger      *slog.Logger
	LogLevel    *slog.LevelVar
	Client      *client.Client
	Transport   api.Transport
	Redis       *redis.Client
	RateLimiter ratelimit.Limiter
	Inputs      providers.InputLoader

	logOutput     io.Writer
	shutdownTrace func(context.Context) error
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithTransport replaces the HTTP transport. The rate limiter still wraps it.
func WithTransport(t api.Transport) ApplicationOption {
	return func(app *Application) error {
		if t == nil {
			return errors.New("nil transport")
		}
		app.Transport = t
		return nil
	}
}

func WithLogger(logger *slog.Logger) ApplicationOption {
	return func(app *Application) error {
		app.Logger = logger
		return nil
	}
}

// WithLogOutput sends the default logger somewhere other than stderr.
func WithLogOutput(w io.Writer) ApplicationOption {
	return func(app *Application) error {
		app.logOutput = w
		return nil
	}
}

// WithRedisClient shares an existing client instead of dialing RedisAddr.
func WithRedisClient(rdb *redis.Client) ApplicationOption {
	return func(app *Application) error {
		app.Redis = rdb
		return nil
	}
}

func NewApplication(ctx context.Context, cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{Config: cfg, logOutput: os.Stderr}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.Logger == nil {
		app.Logger, app.LogLevel = NewLogger(cfg, app.logOutput)
	}

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
		SampleRatio:  cfg.TraceSampleRatio,
	}, app.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "tracing setup")
	}
	app.shutdownTrace = shutdown

	if app.Transport == nil {
		app.Transport = transport.NewHTTP(transport.Config{
			BaseURL:   cfg.APIBaseURL,
			APIKey:    cfg.APIKey,
			Timeout:   cfg.RequestTimeout(),
			UserAgent: cfg.UserAgent,
			Logger:    app.Logger,
		})
	}

	if cfg.RateLimit.Enabled() {
		if app.Redis == nil && cfg.RedisAddr != "" {
			app.Redis = providers.NewRedisClient(cfg.RedisOptions())
			if err := providers.PingRedis(ctx, app.Redis); err != nil {
				app.Logger.Warn("rate limit store unreachable, calls pass unthrottled until it answers", "err", err)
			}
		}
		if app.Redis != nil {
			app.RateLimiter = ratelimit.NewTokenBucketLimiter(app.Redis)
			app.Transport = transport.NewRateLimited(app.Transport, app.RateLimiter, cfg.RateLimit, clientScope, cfg.APIKey, app.Logger)
			key := ratelimit.Key(clientScope, cfg.APIKey)
			metrics.RegisterBucketCollector(app.Redis, func() []string { return []string{key} }, app.Logger)
		}
	}

	policy, err := backoff.ParsePolicy(cfg.PollBackoffPolicy)
	if err != nil {
		return nil, err
	}
	app.Client = client.New(app.Transport,
		client.WithLogger(app.Logger),
		client.WithPollConfig(poll.Config{
			Interval:    cfg.PollInterval(),
			MaxInterval: cfg.PollMaxInterval(),
			MaxAttempts: cfg.PollMaxAttempts,
			Policy:      policy,
		}),
	)
	app.Inputs = providers.NewLocalLoader("", cfg.MaxInputBytes)

	app.Logger.Debug("application ready",
		"api", cfg.APIBaseURL,
		"rate_limited", app.RateLimiter != nil,
		"tracing", cfg.TracingEnabled,
	)
	return app, nil
}

// Close flushes spans and closes the Redis client.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.shutdownTrace != nil {
		if err := a.shutdownTrace(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// NewLogger builds the slog logger described by cfg. The returned LevelVar
// lets callers such as a --verbose flag change the level later.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, *slog.LevelVar) {
	if w == nil {
		w = os.Stderr
	}
	level := new(slog.LevelVar)
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With("service", cfg.ServiceName, "env", cfg.Env), level
}
