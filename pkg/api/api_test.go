package api

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/osvaldoandrade/visiongo/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type countRequest struct {
	calls *atomic.Int32
	fail  error
}

func (countRequest) Method() string        { return "GET" }
func (countRequest) URL() string           { return "/v2/things" }
func (countRequest) Body() ([]byte, error) { return nil, nil }

func (r countRequest) Unmarshal(payload gjson.Result) (int, error) {
	r.calls.Add(1)
	if r.fail != nil {
		return 0, r.fail
	}
	return int(payload.Get("things.#").Int()), nil
}

func fixed(body string) Transport {
	return TransportFunc(func(context.Context, string, string, []byte) ([]byte, error) {
		return []byte(body), nil
	})
}

func TestExecuteRoutesOnStatus(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantOK    bool
		wantCode  domain.StatusCode
		wantCalls int32
	}{
		{"success", `{"status":{"code":10000,"description":"Ok"},"things":[1,2,3]}`, true, 10000, 1},
		{"failure", `{"status":{"code":10020,"description":"Failure"},"things":[1]}`, false, 10020, 0},
		{"mixed success", `{"status":{"code":10010,"description":"Mixed Success"},"things":[1]}`, false, 10010, 0},
		{"training code is not call success", `{"status":{"code":21100,"description":"Model trained"}}`, false, 21100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := &atomic.Int32{}
			resp, err := Execute[int](context.Background(), NewExecutor(fixed(tt.body)), countRequest{calls: calls})
			require.NoError(t, err)

			assert.Equal(t, tt.wantOK, resp.IsSuccessful())
			assert.Equal(t, tt.wantCode, resp.Status().Code)
			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, tt.body, resp.Raw())
			if tt.wantOK {
				assert.Equal(t, 3, resp.Get())
				assert.NoError(t, resp.Err())
				return
			}
			var se *ServiceError
			require.True(t, errors.As(resp.Err(), &se))
			assert.Equal(t, tt.wantCode, se.Code)
		})
	}
}

func TestExecuteSurfacesUnmarshalFailure(t *testing.T) {
	calls := &atomic.Int32{}
	req := countRequest{calls: calls, fail: errors.New("the response does not contain exactly one output")}

	resp, err := Execute[int](context.Background(), NewExecutor(fixed(`{"status":{"code":10000,"description":"Ok"}}`)), req)
	require.NoError(t, err)

	assert.False(t, resp.IsSuccessful())
	assert.Equal(t, domain.StatusOK, resp.Status().Code)
	assert.Equal(t, "unmarshal countRequest: the response does not contain exactly one output", resp.Status().Description)

	var ue *UnmarshalError
	require.True(t, errors.As(resp.Err(), &ue))
	assert.Equal(t, "countRequest", ue.Request)
}

func TestGetOnFailurePanics(t *testing.T) {
	resp := Failure[int](domain.Status{Code: domain.StatusFailure, Description: "Model does not exist"}, nil)

	defer func() {
		r := recover()
		access, ok := r.(*InvalidResponseAccessError)
		require.True(t, ok, "recovered %v", r)
		assert.Equal(t, domain.StatusFailure, access.Code)
		assert.Equal(t, "Model does not exist", access.Description)
	}()
	resp.Get()
	t.Fatal("Get() did not panic")
}

func TestValueOnFailure(t *testing.T) {
	resp := Failure[string](domain.Status{Code: domain.StatusFailure, Description: "nope"}, nil)

	v, err := resp.Value()
	assert.Empty(t, v)
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "nope", se.Description)

	ok := Success(domain.Status{Code: domain.StatusOK}, "yes")
	v, err = ok.Value()
	require.NoError(t, err)
	assert.Equal(t, "yes", v)
}

func TestExecuteTransportErrors(t *testing.T) {
	tests := []struct {
		name      string
		transport Transport
		target    error
	}{
		{"transport fails", TransportFunc(func(context.Context, string, string, []byte) ([]byte, error) {
			return nil, errors.New("connection refused")
		}), nil},
		{"not json", fixed(`<html>bad gateway</html>`), ErrMalformedEnvelope},
		{"no status", fixed(`{"models":[]}`), ErrMalformedEnvelope},
		{"status without code", fixed(`{"status":{"description":"Ok"}}`), ErrMalformedEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := &atomic.Int32{}
			_, err := Execute[int](context.Background(), NewExecutor(tt.transport), countRequest{calls: calls})

			var te *TransportError
			require.True(t, errors.As(err, &te), "want *TransportError, got %v", err)
			assert.Equal(t, "GET", te.Method)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Zero(t, calls.Load())
		})
	}
}

func TestExecutePropagatesCancellation(t *testing.T) {
	blocking := TransportFunc(func(ctx context.Context, _, _ string, _ []byte) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute[int](ctx, NewExecutor(blocking), countRequest{calls: &atomic.Int32{}})
	assert.ErrorIs(t, err, context.Canceled)
}

type badBody struct{ countRequest }

func (badBody) Body() ([]byte, error) { return nil, errors.New("sjson: invalid path") }

func TestExecuteBodyError(t *testing.T) {
	called := false
	transport := TransportFunc(func(context.Context, string, string, []byte) ([]byte, error) {
		called = true
		return nil, nil
	})

	_, err := Execute[int](context.Background(), NewExecutor(transport), badBody{countRequest{calls: &atomic.Int32{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode badBody body")
	assert.False(t, called)
}

func TestExecuteAsync(t *testing.T) {
	e := NewExecutor(fixed(`{"status":{"code":10000,"description":"Ok"},"things":[1]}`))

	f := ExecuteAsync[int](context.Background(), e, countRequest{calls: &atomic.Int32{}})
	resp, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Get())

	select {
	case <-f.Done():
	default:
		t.Fatal("Done() not closed after Await")
	}
}

func TestAwaitGivesUpOnContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := TransportFunc(func(context.Context, string, string, []byte) ([]byte, error) {
		<-release
		return []byte(`{"status":{"code":10000}}`), nil
	})

	f := ExecuteAsync[int](context.Background(), NewExecutor(slow), countRequest{calls: &atomic.Int32{}})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type pathRequest struct{ id int }

func (pathRequest) Method() string        { return "GET" }
func (r pathRequest) URL() string         { return fmt.Sprintf("/v2/things/%d", r.id) }
func (pathRequest) Body() ([]byte, error) { return nil, nil }
func (pathRequest) Name() string          { return "GetThing" }

func (pathRequest) Unmarshal(payload gjson.Result) (string, error) {
	return payload.Get("thing.id").String(), nil
}

func TestExecuteAllKeepsOrder(t *testing.T) {
	var inFlight, peak atomic.Int32
	echo := TransportFunc(func(_ context.Context, _, url string, _ []byte) ([]byte, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return []byte(fmt.Sprintf(`{"status":{"code":10000},"thing":{"id":%q}}`, url)), nil
	})

	reqs := make([]Request[string], 6)
	for i := range reqs {
		reqs[i] = pathRequest{id: i}
	}

	resps, err := ExecuteAll(context.Background(), NewExecutor(echo), reqs, 2)
	require.NoError(t, err)
	require.Len(t, resps, 6)
	for i, r := range resps {
		assert.Equal(t, fmt.Sprintf("/v2/things/%d", i), r.Get())
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestExecuteAllStopsOnTransportError(t *testing.T) {
	failing := TransportFunc(func(_ context.Context, _, url string, _ []byte) ([]byte, error) {
		if url == "/v2/things/1" {
			return nil, errors.New("reset by peer")
		}
		return []byte(`{"status":{"code":10000},"thing":{"id":"x"}}`), nil
	})

	_, err := ExecuteAll(context.Background(), NewExecutor(failing), []Request[string]{pathRequest{0}, pathRequest{1}}, 0)
	var te *TransportError
	require.True(t, errors.As(err, &te))
}

func TestRequestName(t *testing.T) {
	assert.Equal(t, "GetThing", requestName(pathRequest{}))
	assert.Equal(t, "countRequest", requestName(countRequest{}))
	assert.Equal(t, "countRequest", requestName(&countRequest{}))
}
