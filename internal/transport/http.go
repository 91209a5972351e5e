// Package transport moves request bodies to the prediction service and raw
// response bodies back. It knows nothing about statuses or payloads.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/tracing"
	"github.com/osvaldoandrade/visiongo/pkg/api"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://api.clarifai.com"
	DefaultTimeout = 30 * time.Second

	headerRequestID = "X-Request-Id"
)

// HTTPStatusError is a non-2xx reply whose body is not a JSON envelope, such
// as a proxy error page.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(body))
}

type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
	// HTTPClient replaces the underlying client, mostly for tests.
	HTTPClient *http.Client
}

// HTTP is an api.Transport over resty. HTTP status codes are informational:
// any JSON body goes back to the executor, which reads the status envelope.
type HTTP struct {
	rc     *resty.Client
	logger *slog.Logger
}

var _ api.Transport = (*HTTP)(nil)

func NewHTTP(cfg Config) *HTTP {
	rc := resty.New()
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rc.SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetAuthScheme("Key").
		SetAuthToken(cfg.APIKey)
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &HTTP{rc: rc, logger: logger}
}

func (h *HTTP) Do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	reqID := uuid.NewString()
	req := h.rc.R().
		SetContext(ctx).
		SetHeader(headerRequestID, reqID)
	tracing.InjectHeaders(ctx, req.Header)
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrapf(ctxErr, "%s %s", method, url)
		}
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}

	raw := resp.Body()
	h.logger.Debug("http call",
		"method", method,
		"url", url,
		"request_id", reqID,
		"http_status", resp.StatusCode(),
		"bytes", len(raw),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !resp.IsSuccess() && !gjson.ValidBytes(raw) {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode(), Body: string(raw)}
	}
	return raw, nil
}
