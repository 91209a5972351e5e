package fakeapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const key = "test-key"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.APIKeys == nil {
		opts.APIKeys = []string{key}
	}
	opts.Now = func() time.Time { return fixedNow }
	return New(opts)
}

func call(t *testing.T, s *Server, method, path, body string) (int, gjson.Result) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Key "+key)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.True(t, gjson.ValidBytes(rec.Body.Bytes()), "body is not JSON: %s", rec.Body.String())
	return rec.Code, gjson.ParseBytes(rec.Body.Bytes())
}

func code(r gjson.Result) int64 { return r.Get("status.code").Int() }

func TestUnauthorized(t *testing.T) {
	s := newServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/v2/concepts", nil)
	req.Header.Set("Authorization", "Key wrong")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int64(11009), gjson.GetBytes(rec.Body.Bytes(), "status.code").Int())
}

func TestUnknownRoute(t *testing.T) {
	s := newServer(t, Options{})
	status, body := call(t, s, http.MethodGet, "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, int64(11101), code(body))
}

func TestConceptsLifecycle(t *testing.T) {
	s := newServer(t, Options{})

	_, body := call(t, s, http.MethodPost, "/v2/concepts", `{"concepts":[{"id":"boscoe"},{"id":"cat","name":"Cat"}]}`)
	require.Equal(t, int64(10000), code(body))
	assert.Equal(t, "boscoe", body.Get("concepts.0.name").String())
	assert.Equal(t, appID, body.Get("concepts.1.app_id").String())

	_, body = call(t, s, http.MethodGet, "/v2/concepts/cat", "")
	assert.Equal(t, "Cat", body.Get("concept.name").String())

	_, body = call(t, s, http.MethodPatch, "/v2/concepts", `{"action":"overwrite","concepts":[{"id":"cat","name":"Kitty"}]}`)
	require.Equal(t, int64(10000), code(body))
	assert.Equal(t, "Kitty", body.Get("concepts.0.name").String())

	_, body = call(t, s, http.MethodPost, "/v2/concepts/searches", `{"concept_query":{"name":"kit*","language":"en"}}`)
	assert.Equal(t, int64(1), body.Get("concepts.#").Int())

	_, body = call(t, s, http.MethodGet, "/v2/concepts?page=2&per_page=1", "")
	assert.Equal(t, "cat", body.Get("concepts.0.id").String())

	status, body := call(t, s, http.MethodGet, "/v2/concepts/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, int64(11101), code(body))

	status, body = call(t, s, http.MethodPatch, "/v2/concepts", `{"action":"explode","concepts":[{"id":"cat"}]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, int64(11102), code(body))
}

func TestTrainingProgressesOnReads(t *testing.T) {
	s := newServer(t, Options{TrainingReads: 2})

	_, body := call(t, s, http.MethodPost, "/v2/models", `{"model":{"id":"pets","output_info":{"data":{"concepts":[{"id":"dog"}]}}}}`)
	require.Equal(t, int64(10000), code(body))

	_, body = call(t, s, http.MethodPost, "/v2/models/pets/versions", `{}`)
	require.Equal(t, int64(21103), body.Get("model.model_version.status.code").Int())
	versionID := body.Get("model.model_version.id").String()

	var seen []int64
	for i := 0; i < 4; i++ {
		_, body = call(t, s, http.MethodGet, "/v2/models/pets/output_info", "")
		seen = append(seen, body.Get("model.model_version.status.code").Int())
	}
	assert.Equal(t, []int64{21103, 21101, 21100, 21100}, seen)

	_, body = call(t, s, http.MethodPost, "/v2/models/pets/versions/"+versionID+"/metrics", `{}`)
	require.Equal(t, int64(10000), code(body))
	assert.Equal(t, int64(21303), body.Get("model_version.metrics.status.code").Int())

	seen = nil
	for i := 0; i < 3; i++ {
		_, body = call(t, s, http.MethodGet, "/v2/models/pets/versions/"+versionID, "")
		seen = append(seen, body.Get("model_version.metrics.status.code").Int())
	}
	assert.Equal(t, []int64{21303, 21301, 21300}, seen)
}

func TestTrainingWithoutConceptsFails(t *testing.T) {
	s := newServer(t, Options{TrainingReads: 1})
	call(t, s, http.MethodPost, "/v2/models", `{"model":{"id":"empty"}}`)
	call(t, s, http.MethodPost, "/v2/models/empty/versions", `{}`)

	call(t, s, http.MethodGet, "/v2/models/empty/output_info", "")
	_, body := call(t, s, http.MethodGet, "/v2/models/empty/output_info", "")
	assert.Equal(t, int64(21110), body.Get("model.model_version.status.code").Int())
}

func TestModelSearchAndDelete(t *testing.T) {
	s := newServer(t, Options{})

	_, body := call(t, s, http.MethodPost, "/v2/models/searches", `{"model_query":{"name":"*","type":"focus"}}`)
	require.Equal(t, int64(1), body.Get("models.#").Int())
	assert.Equal(t, FocusModelID, body.Get("models.0.id").String())

	status, _ := call(t, s, http.MethodDelete, "/v2/models/"+GeneralModelID, "")
	assert.Equal(t, http.StatusForbidden, status)

	call(t, s, http.MethodPost, "/v2/models", `{"model":{"id":"mine"}}`)
	_, body = call(t, s, http.MethodDelete, "/v2/models", `{"delete_all":true}`)
	require.Equal(t, int64(10000), code(body))
	status, _ = call(t, s, http.MethodGet, "/v2/models/mine/output_info", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, s, http.MethodGet, "/v2/models/"+GeneralModelID+"/output_info", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestPredictAppliesOutputConfig(t *testing.T) {
	s := newServer(t, Options{})
	body := `{"inputs":[{"data":{"image":{"url":"https://samples.example.com/metro-north.jpg"}}}],
		"model":{"output_info":{"output_config":{"min_value":0.9,"max_concepts":3,"language":"es"}}}}`

	_, resp := call(t, s, http.MethodPost, "/v2/models/"+GeneralModelID+"/outputs", body)
	require.Equal(t, int64(10000), code(resp))
	concepts := resp.Get("outputs.0.data.concepts").Array()
	require.Len(t, concepts, 2)
	for _, c := range concepts {
		assert.GreaterOrEqual(t, c.Get("value").Float(), 0.9)
		assert.Equal(t, "es", c.Get("language").String())
	}
	assert.Equal(t, "concept", resp.Get("outputs.0.model.output_info.type_ext").String())
}

func TestPredictSelectConceptsAndVideo(t *testing.T) {
	s := newServer(t, Options{})
	body := `{"inputs":[{"data":{"video":{"url":"https://samples.example.com/beach.mp4"}}}],
		"model":{"output_info":{"output_config":{"sample_ms":500,"select_concepts":[{"id":"ai_786Zr311"}]}}}}`

	_, resp := call(t, s, http.MethodPost, "/v2/models/"+GeneralModelID+"/outputs", body)
	require.Equal(t, int64(10000), code(resp))
	frames := resp.Get("outputs.0.data.frames").Array()
	require.Len(t, frames, 3)
	assert.Equal(t, int64(1000), frames[2].Get("frame_info.time").Int())
	assert.Equal(t, "animal", frames[0].Get("data.concepts.0.name").String())
	assert.Equal(t, int64(1), frames[0].Get("data.concepts.#").Int())
}

func TestPredictRejectsBadInput(t *testing.T) {
	s := newServer(t, Options{})

	status, resp := call(t, s, http.MethodPost, "/v2/models/"+GeneralModelID+"/outputs", `{"inputs":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, int64(11102), code(resp))

	status, _ = call(t, s, http.MethodPost, "/v2/models/nope/outputs", `{"inputs":[{"data":{"image":{"url":"u"}}}]}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, s, http.MethodPost, "/v2/models/"+GeneralModelID+"/outputs", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInputsLifecycle(t *testing.T) {
	s := newServer(t, Options{})

	_, body := call(t, s, http.MethodPost, "/v2/inputs", `{"inputs":[
		{"id":"a","data":{"image":{"url":"https://x/a.jpg"},"concepts":[{"id":"dog","value":1}]}},
		{"data":{"image":{"base64":"aGVsbG8="}}}]}`)
	require.Equal(t, int64(10000), code(body))
	assert.Equal(t, int64(30000), body.Get("inputs.0.status.code").Int())
	assert.NotEmpty(t, body.Get("inputs.1.id").String())

	status, _ := call(t, s, http.MethodPost, "/v2/inputs", `{"inputs":[{"data":{"image":{"url":"https://x/a.jpg"}}}]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	_, body = call(t, s, http.MethodGet, "/v2/inputs/status", "")
	assert.Equal(t, int64(2), body.Get("counts.processed").Int())

	_, body = call(t, s, http.MethodDelete, "/v2/inputs", `{"ids":["a"]}`)
	require.Equal(t, int64(10000), code(body))
	status, _ = call(t, s, http.MethodGet, "/v2/inputs/a", "")
	assert.Equal(t, http.StatusNotFound, status)

	call(t, s, http.MethodDelete, "/v2/inputs", `{"delete_all":true}`)
	_, body = call(t, s, http.MethodGet, "/v2/inputs", "")
	assert.Equal(t, int64(0), body.Get("inputs.#").Int())
}

type denyAll struct{}

func (denyAll) Take(context.Context, string, string, ratelimit.Bucket, int) (ratelimit.Decision, error) {
	return ratelimit.Decision{RetryAfter: 2 * time.Second}, nil
}

func TestRateLimited(t *testing.T) {
	s := newServer(t, Options{Limiter: denyAll{}, Bucket: ratelimit.Bucket{RequestsPerMinute: 1, BurstSize: 1}})
	status, body := call(t, s, http.MethodGet, "/v2/models", "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, int64(11005), code(body))
}

func TestMatchName(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"dog", "Dog", true},
		{"do*", "dog", true},
		{"*", "anything", true},
		{"dog", "dogs", false},
	}
	for _, tt := range tests {
		if got := matchName(tt.pattern, tt.name); got != tt.want {
			t.Errorf("matchName(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}

func TestPage(t *testing.T) {
	ids := []string{"a", "b", "c"}
	assert.Equal(t, []string{"a", "b"}, page(ids, 1, 2))
	assert.Equal(t, []string{"c"}, page(ids, 2, 2))
	assert.Nil(t, page(ids, 3, 2))
	assert.Equal(t, ids, page(ids, 0, 0))
}
