package outputinfo

import (
	"errors"
	"testing"

	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestResolveFaceDetectIdentityWithoutMessage(t *testing.T) {
	node := gjson.Parse(`{"type":"concept","type_ext":"facedetect-identity"}`)

	info, err := Resolve(node)
	require.NoError(t, err)

	face, ok := info.(FaceDetectionOutputInfo)
	require.True(t, ok, "got %T", info)
	assert.Equal(t, "concept", face.Type())
	assert.Equal(t, "facedetect-identity", face.TypeExt())
	assert.Equal(t, "", face.Message())
}

func TestResolveDiscriminators(t *testing.T) {
	tests := []struct {
		name string
		json string
		want OutputInfo
	}{
		{
			"focus model reported as blur",
			`{"message":"Show output_info with: GET /models/{model_id}/output_info","type":"blur","type_ext":"focus"}`,
			FocusOutputInfo{HeaderOnly{Header{Kind: "blur", KindExt: "focus", Msg: "Show output_info with: GET /models/{model_id}/output_info"}}},
		},
		{
			"type only",
			`{"type":"embed"}`,
			EmbeddingOutputInfo{HeaderOnly{Header{Kind: "embed"}}},
		},
		{
			"demographics",
			`{"type":"facedetect","type_ext":"facedetect-demographics"}`,
			DemographicsOutputInfo{HeaderOnly{Header{Kind: "facedetect", KindExt: "facedetect-demographics"}}},
		},
		{
			"logo with concepts",
			`{"type":"concept","type_ext":"logo","data":{"concepts":[{"id":"ai_shell","name":"Shell"}]}}`,
			LogoOutputInfo{ConceptsOutputInfo{Header: Header{Kind: "concept", KindExt: "logo"}, Concepts: []predictions.Concept{{ID: "ai_shell", Name: "Shell"}}}},
		},
		{
			"concept with config",
			`{"type":"concept","type_ext":"concept","data":{"concepts":[{"id":"cat"}]},"output_config":{"concepts_mutually_exclusive":false,"closed_environment":true}}`,
			ConceptOutputInfo{
				Header:            Header{Kind: "concept", KindExt: "concept"},
				Concepts:          []predictions.Concept{{ID: "cat"}},
				MutuallyExclusive: lo.ToPtr(false),
				ClosedEnvironment: lo.ToPtr(true),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(gjson.Parse(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnknownFallsBack(t *testing.T) {
	raw := `{"type":"hologram","type_ext":"hologram-3d","message":"new"}`

	info, err := Resolve(gjson.Parse(raw))
	require.NoError(t, err)
	require.True(t, IsUnknown(info))
	assert.Equal(t, "hologram-3d", info.TypeExt())
	assert.Equal(t, raw, info.Serialize())
}

func TestRoundTrip(t *testing.T) {
	concepts := []predictions.Concept{{ID: "cat", Name: "Cat"}, {ID: "dog", Value: 1, HasValue: true}}
	tests := []struct {
		name string
		in   OutputInfo
	}{
		{"concept bare", ConceptOutputInfo{Header: Header{Kind: "concept", KindExt: "concept"}}},
		{"concept full", ConceptOutputInfo{
			Header:            Header{Kind: "concept", KindExt: "concept", Msg: "ok"},
			Concepts:          concepts,
			MutuallyExclusive: lo.ToPtr(true),
			ClosedEnvironment: lo.ToPtr(false),
			Language:          "en",
		}},
		{"color", ColorOutputInfo{ConceptsOutputInfo{Header: Header{Kind: "color", KindExt: "color"}, Concepts: concepts}}},
		{"detection", DetectionOutputInfo{ConceptsOutputInfo{Header: Header{Kind: "detection"}}}},
		{"face detection without message", FaceDetectionOutputInfo{ConceptsOutputInfo{Header: Header{Kind: "facedetect", KindExt: "facedetect"}}}},
		{"regression", RegressionOutputInfo{ConceptsOutputInfo{Header: Header{Kind: "regression"}}}},
		{"focus", FocusOutputInfo{HeaderOnly{Header{Kind: "blur", KindExt: "focus"}}}},
		{"face embedding", FaceEmbeddingOutputInfo{HeaderOnly{Header{Kind: "embed", KindExt: "facedetect-embed"}}}},
		{"cluster", ClusterOutputInfo{HeaderOnly{Header{Kind: "cluster"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(gjson.Parse(tt.in.Serialize()))
			require.NoError(t, err)
			assert.Equal(t, tt.in, got)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not an object", `["concept"]`},
		{"message is a number", `{"type":"concept","message":7}`},
		{"concept without id", `{"type":"concept","data":{"concepts":[{"name":"cat"}]}}`},
		{"mutually exclusive as string", `{"type":"concept","output_config":{"concepts_mutually_exclusive":"yes"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(gjson.Parse(tt.json))
			var de *DecodeError
			require.True(t, errors.As(err, &de), "want *DecodeError, got %v", err)
		})
	}
}
