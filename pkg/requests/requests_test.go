package requests

import (
	"context"
	"errors"
	"testing"

	"github.com/osvaldoandrade/visiongo/pkg/api"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/outputinfo"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var (
	_ api.Request[predictions.Concept]                = GetConcept{}
	_ api.Request[[]predictions.Concept]              = GetConcepts{}
	_ api.Request[[]predictions.Concept]              = AddConcepts{}
	_ api.Request[[]predictions.Concept]              = ModifyConcepts{}
	_ api.Request[[]predictions.Concept]              = SearchConcepts{}
	_ api.Request[[]domain.Model]                     = SearchModels{}
	_ api.Request[domain.Model]                       = GetModel{}
	_ api.Request[[]domain.Model]                     = GetModels{}
	_ api.Request[domain.Model]                       = CreateModel{}
	_ api.Request[Empty]                              = DeleteModel{}
	_ api.Request[Empty]                              = DeleteModelVersion{}
	_ api.Request[Empty]                              = DeleteAllModels{}
	_ api.Request[domain.Model]                       = TrainModel{}
	_ api.Request[domain.ModelVersion]                = GetModelVersion{}
	_ api.Request[[]domain.ModelVersion]              = GetModelVersions{}
	_ api.Request[domain.ModelVersion]                = ModelEvaluation{}
	_ api.Request[domain.Output[predictions.Logo]]    = Predict[predictions.Logo]{}
	_ api.Request[[]domain.Output[predictions.Focus]] = BatchPredict[predictions.Focus]{}
	_ api.Request[[]domain.Input]                     = AddInputs{}
	_ api.Request[domain.Input]                       = GetInput{}
	_ api.Request[[]domain.Input]                     = GetInputs{}
	_ api.Request[Empty]                              = DeleteInputs{}
	_ api.Request[domain.InputsStatus]                = GetInputsStatus{}
)

// recorder answers every call with body and keeps what was sent.
type recorder struct {
	body   string
	method string
	url    string
	sent   []byte
}

func (r *recorder) Do(_ context.Context, method, url string, body []byte) ([]byte, error) {
	r.method, r.url, r.sent = method, url, body
	return []byte(r.body), nil
}

func run[T any](t *testing.T, body string, req api.Request[T]) (api.Response[T], *recorder) {
	t.Helper()
	rec := &recorder{body: body}
	resp, err := api.Execute(context.Background(), api.NewExecutor(rec), req)
	require.NoError(t, err)
	return resp, rec
}

func TestSearchModelsByNameAndType(t *testing.T) {
	resp, rec := run[[]domain.Model](t, `{
		"status":{"code":10000,"description":"Ok"},
		"models":[{
			"id":"@modelID",
			"name":"focus",
			"created_at":"2017-03-06T22:57:00.660603Z",
			"app_id":"main",
			"output_info":{"message":"Show output_info with: GET /models/{model_id}/output_info","type":"blur","type_ext":"focus"},
			"model_version":{"id":"@modelVersionID","created_at":"2017-03-06T22:57:00.684652Z","status":{"code":21100,"description":"Model trained successfully"}},
			"display_name":"Focus"
		}]
	}`, NewSearchModels("*").OfType(domain.ModelTypeFocus))

	assert.Equal(t, "POST", rec.method)
	assert.Equal(t, "/v2/models/searches", rec.url)
	assert.JSONEq(t, `{"model_query":{"name":"*","type":"focus"}}`, string(rec.sent))

	require.True(t, resp.IsSuccessful())
	models := resp.Get()
	require.Len(t, models, 1)
	assert.Equal(t, "@modelID", models[0].ID)
	assert.Equal(t, "@modelVersionID", models[0].Version.ID)
	assert.IsType(t, outputinfo.FocusOutputInfo{}, models[0].OutputInfo)
}

func TestSearchModelsByNameOnly(t *testing.T) {
	body, err := NewSearchModels("celeb*").Body()
	require.NoError(t, err)
	assert.JSONEq(t, `{"model_query":{"name":"celeb*"}}`, string(body))
}

func TestTrainedVersionIsTerminal(t *testing.T) {
	resp, _ := run[[]domain.Model](t, `{
		"status":{"code":10000,"description":"Ok"},
		"models":[{
			"id":"@modelID",
			"name":"celeb-v1.3",
			"output_info":{"type":"concept","type_ext":"facedetect-identity"},
			"model_version":{"id":"@v","status":{"code":21100,"description":"Model trained successfully"},"active_concept_count":10554}
		}]
	}`, NewSearchModels("celeb*"))

	models := resp.Get()
	require.Len(t, models, 1)
	status := models[0].Version.Status
	assert.Equal(t, domain.ModelTrained, status.Code)
	assert.True(t, status.IsTerminal())
	assert.True(t, status.IsTrained())
	assert.Equal(t, 10554, *models[0].Version.ActiveConceptCount)

	inProgress := domain.ModelTrainingStatus{Code: domain.ModelTraining}
	assert.False(t, inProgress.IsTerminal())
}

func TestPredictBodyIsAdditive(t *testing.T) {
	input := domain.NewURLImage("https://samples.example/metro-north.jpg")
	const bare = `{"inputs":[{"data":{"image":{"url":"https://samples.example/metro-north.jpg"}}}]}`

	tests := []struct {
		name string
		opts []PredictOption
		want string
	}{
		{"no options", nil, bare},
		{"version only changes url", []PredictOption{WithModelVersion("v1")}, bare},
		{"language", []PredictOption{WithLanguage("zh")},
			`{"inputs":[{"data":{"image":{"url":"https://samples.example/metro-north.jpg"}}}],"model":{"output_info":{"output_config":{"language":"zh"}}}}`},
		{"min value", []PredictOption{WithMinValue(decimal.RequireFromString("0.95"))},
			`{"inputs":[{"data":{"image":{"url":"https://samples.example/metro-north.jpg"}}}],"model":{"output_info":{"output_config":{"min_value":0.95}}}}`},
		{"max concepts and sample", []PredictOption{WithMaxConcepts(3), WithSampleMs(2000)},
			`{"inputs":[{"data":{"image":{"url":"https://samples.example/metro-north.jpg"}}}],"model":{"output_info":{"output_config":{"max_concepts":3,"sample_ms":2000}}}}`},
		{"select concepts", []PredictOption{WithSelectConcepts(predictions.Concept{ID: "dog"}, predictions.Concept{Name: "cat", ID: "ai_cat"})},
			`{"inputs":[{"data":{"image":{"url":"https://samples.example/metro-north.jpg"}}}],"model":{"output_info":{"output_config":{"select_concepts":[{"id":"dog"},{"id":"ai_cat","name":"cat"}]}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := NewPredict[predictions.Concept]("general", input, tt.opts...).Body()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(body))
			assert.NotContains(t, string(body), "null")
		})
	}
}

func TestPredictURL(t *testing.T) {
	in := domain.NewURLImage("u")
	assert.Equal(t, "/v2/models/general/outputs", NewPredict[predictions.Concept]("general", in).URL())
	assert.Equal(t, "/v2/models/general/versions/v2/outputs", NewPredict[predictions.Concept]("general", in, WithModelVersion("v2")).URL())
	assert.Equal(t, "/v2/models/a%2Fb/outputs", NewPredict[predictions.Concept]("a/b", in).URL())
}

func TestPredictRequiresExactlyOneOutput(t *testing.T) {
	output := `{"id":"o","status":{"code":10000},"data":{"concepts":[{"id":"train","value":0.99}]}}`
	tests := []struct {
		name    string
		outputs string
	}{
		{"none", `[]`},
		{"absent", ``},
		{"two", `[` + output + `,` + output + `]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"status":{"code":10000,"description":"Ok"}}`
			if tt.outputs != "" {
				body = `{"status":{"code":10000,"description":"Ok"},"outputs":` + tt.outputs + `}`
			}
			resp, _ := run[domain.Output[predictions.Concept]](t, body, NewPredict[predictions.Concept]("general", domain.NewURLImage("u")))

			require.False(t, resp.IsSuccessful())
			assert.ErrorIs(t, resp.Err(), ErrNotExactlyOneOutput)
			var ue *api.UnmarshalError
			require.True(t, errors.As(resp.Err(), &ue))
			assert.Equal(t, "Predict", ue.Request)
		})
	}

	resp, _ := run[domain.Output[predictions.Concept]](t, `{"status":{"code":10000},"outputs":[`+output+`]}`, NewPredict[predictions.Concept]("general", domain.NewURLImage("u")))
	require.True(t, resp.IsSuccessful())
	assert.Equal(t, "train", resp.Get().Data[0].ID)
}

func TestPredictLogo(t *testing.T) {
	resp, _ := run[domain.Output[predictions.Logo]](t, `{
		"status":{"code":10000,"description":"Ok"},
		"outputs":[{
			"id":"@outputID",
			"status":{"code":10000,"description":"Ok"},
			"model":{"id":"@modelID","name":"logo","output_info":{"message":"Show output_info with: GET /models/{model_id}/output_info","type":"concept","type_ext":"logo"}},
			"input":{"id":"@inputID","data":{"image":{"url":"@imageUrl"}}},
			"data":{"regions":[{
				"region_info":{"bounding_box":{"top_row":0.3922,"left_col":0.1525,"bottom_row":0.5709,"right_col":0.3507}},
				"data":{"concepts":[{"id":"@conceptID","name":"I'm a logo","app_id":"main","value":0.51}]}
			}]}
		}]
	}`, NewPredict[predictions.Logo]("@modelID", domain.NewURLImage("@imageUrl")))

	require.True(t, resp.IsSuccessful())
	out := resp.Get()
	assert.Equal(t, "@outputID", out.ID)
	assert.IsType(t, outputinfo.LogoOutputInfo{}, out.Model.OutputInfo)
	require.Len(t, out.Data, 1)
	assert.Equal(t, 0.3922, out.Data[0].Crop.Top)
	assert.Equal(t, "I'm a logo", out.Data[0].Concepts[0].Name)
}

func TestPredictDynamicKind(t *testing.T) {
	req := NewPredict[predictions.Prediction]("color", domain.NewURLImage("u"), WithPredictionType(predictions.TypeColor))
	resp, _ := run[domain.Output[predictions.Prediction]](t, `{"status":{"code":10000},"outputs":[{"data":{"colors":[{"raw_hex":"#f2f2f2","value":0.9}]}}]}`, req)

	require.True(t, resp.IsSuccessful())
	require.Len(t, resp.Get().Data, 1)
	color, ok := resp.Get().Data[0].(predictions.Color)
	require.True(t, ok)
	assert.Equal(t, "#f2f2f2", color.RawHex)
}

func TestBatchPredict(t *testing.T) {
	inputs := []domain.Input{domain.NewURLImage("a"), domain.NewFileImage([]byte("b"))}
	req := NewBatchPredict[predictions.Focus]("focus", inputs)

	body, err := req.Body()
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.GetBytes(body, "inputs.#").Int())
	assert.False(t, gjson.GetBytes(body, "model").Exists())

	resp, _ := run[[]domain.Output[predictions.Focus]](t, `{"status":{"code":10000},"outputs":[
		{"data":{"focus":{"density":0.7,"value":0.8},"regions":[{"region_info":{"bounding_box":{"top_row":0,"left_col":0,"bottom_row":1,"right_col":1}},"data":{"focus":{"density":0.5}}}]}},
		{"data":{}}
	]}`, req)
	require.True(t, resp.IsSuccessful())
	outs := resp.Get()
	require.Len(t, outs, 2)
	assert.Equal(t, 0.8, outs[0].Data[0].Value)
	assert.Empty(t, outs[1].Data)
}

func TestServiceFailureSkipsUnmarshal(t *testing.T) {
	resp, _ := run[domain.Output[predictions.Concept]](t, `{"status":{"code":21200,"description":"Model does not exist"},"outputs":"garbage"}`,
		NewPredict[predictions.Concept]("missing", domain.NewURLImage("u")))

	require.False(t, resp.IsSuccessful())
	var se *api.ServiceError
	require.True(t, errors.As(resp.Err(), &se))
	assert.Equal(t, domain.StatusCode(21200), se.Code)
	assert.Equal(t, "Model does not exist", se.Description)
}

func TestRequestShapes(t *testing.T) {
	f := false
	tests := []struct {
		name   string
		req    interface {
			Method() string
			URL() string
			Body() ([]byte, error)
		}
		method string
		url    string
		body   string
	}{
		{"get concept", NewGetConcept("cat"), "GET", "/v2/concepts/cat", ""},
		{"get concepts paged", GetConcepts{Page: Page{Page: 2, PerPage: 50}}, "GET", "/v2/concepts?page=2&per_page=50", ""},
		{"get concepts", GetConcepts{}, "GET", "/v2/concepts", ""},
		{"add concepts", NewAddConcepts(predictions.Concept{ID: "cat", Name: "Cat"}), "POST", "/v2/concepts",
			`{"concepts":[{"id":"cat","name":"Cat"}]}`},
		{"modify concepts", NewModifyConcepts(ModifyOverwrite, predictions.Concept{ID: "cat", Name: "Kitty"}.WithValue(0)), "PATCH", "/v2/concepts",
			`{"action":"overwrite","concepts":[{"id":"cat","name":"Kitty"}]}`},
		{"search concepts", NewSearchConcepts("ca*").InLanguage("en"), "POST", "/v2/concepts/searches",
			`{"concept_query":{"name":"ca*","language":"en"}}`},
		{"get model", NewGetModel("m"), "GET", "/v2/models/m/output_info", ""},
		{"get model version", NewGetModel("m").Version("v"), "GET", "/v2/models/m/versions/v/output_info", ""},
		{"get models", GetModels{Page: Page{PerPage: 10}}, "GET", "/v2/models?per_page=10", ""},
		{"create model bare", NewCreateModel("m"), "POST", "/v2/models", `{"model":{"id":"m"}}`},
		{"create model", NewCreateModel("m", WithModelName("pets"), WithModelConcepts("cat", "dog"), WithMutuallyExclusive(f)), "POST", "/v2/models",
			`{"model":{"id":"m","name":"pets","output_info":{"data":{"concepts":[{"id":"cat"},{"id":"dog"}]},"output_config":{"concepts_mutually_exclusive":false}}}}`},
		{"delete model", DeleteModel{ID: "m"}, "DELETE", "/v2/models/m", ""},
		{"delete model version", DeleteModelVersion{ModelID: "m", VersionID: "v"}, "DELETE", "/v2/models/m/versions/v", ""},
		{"delete all models", DeleteAllModels{}, "DELETE", "/v2/models", `{"delete_all":true}`},
		{"train model", TrainModel{ID: "m"}, "POST", "/v2/models/m/versions", `{}`},
		{"get version by id", GetModelVersion{ModelID: "m", VersionID: "v"}, "GET", "/v2/models/m/versions/v", ""},
		{"get model versions", GetModelVersions{ModelID: "m", Page: Page{Page: 1}}, "GET", "/v2/models/m/versions?page=1", ""},
		{"model evaluation", ModelEvaluation{ModelID: "m", VersionID: "v"}, "POST", "/v2/models/m/versions/v/metrics", `{}`},
		{"add inputs", NewAddInputs(domain.NewURLImage("u", domain.WithAllowDuplicateURL(true))), "POST", "/v2/inputs",
			`{"inputs":[{"data":{"image":{"url":"u","allow_duplicate_url":true}}}]}`},
		{"get input", GetInput{ID: "i"}, "GET", "/v2/inputs/i", ""},
		{"get inputs", GetInputs{}, "GET", "/v2/inputs", ""},
		{"delete inputs", NewDeleteInputs("a", "b", "a"), "DELETE", "/v2/inputs", `{"ids":["a","b"]}`},
		{"delete all inputs", DeleteAllInputs(), "DELETE", "/v2/inputs", `{"delete_all":true}`},
		{"inputs status", GetInputsStatus{}, "GET", "/v2/inputs/status", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.method, tt.req.Method())
			assert.Equal(t, tt.url, tt.req.URL())
			body, err := tt.req.Body()
			require.NoError(t, err)
			if tt.body == "" {
				assert.Nil(t, body)
				return
			}
			assert.JSONEq(t, tt.body, string(body))
		})
	}
}

func TestDeleteInputsRequiresIDs(t *testing.T) {
	_, err := NewDeleteInputs().Body()
	assert.ErrorIs(t, err, ErrNoInputsToDelete)
}

func TestUnmarshalPayloads(t *testing.T) {
	concept, err := GetConcept{}.Unmarshal(gjson.Parse(`{"concept":{"id":"cat","name":"Cat"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Cat", concept.Name)

	_, err = GetConcept{}.Unmarshal(gjson.Parse(`{"concepts":[]}`))
	assert.Error(t, err)

	versions, err := GetModelVersions{}.Unmarshal(gjson.Parse(`{"model_versions":[{"id":"v1","status":{"code":21101}},{"id":"v2"}]}`))
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.False(t, versions[0].Status.IsTerminal())

	eval, err := ModelEvaluation{}.Unmarshal(gjson.Parse(`{"model_version":{"id":"v1","metrics":{"status":{"code":21303,"description":"Model is queued for evaluation."}}}}`))
	require.NoError(t, err)
	require.NotNil(t, eval.Metrics)
	assert.Equal(t, domain.ModelQueuedForEvaluation, eval.Metrics.Code)

	counts, err := GetInputsStatus{}.Unmarshal(gjson.Parse(`{"counts":{"processed":3,"to_process":1}}`))
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Total())

	inputs, err := GetInputs{}.Unmarshal(gjson.Parse(`{"inputs":[{"id":"a","data":{"video":{"url":"v.mp4"}}}]}`))
	require.NoError(t, err)
	assert.Equal(t, domain.InputVideo, inputs[0].Kind)

	_, err = GetModels{}.Unmarshal(gjson.Parse(`{"models":[{"name":"no id"}]}`))
	assert.ErrorContains(t, err, "models[0]")
}
