package requests

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// SearchModels finds models by name and, optionally, by type.
type SearchModels struct {
	Name string
	Type domain.ModelType
}

func NewSearchModels(name string) SearchModels { return SearchModels{Name: name} }

func (r SearchModels) OfType(t domain.ModelType) SearchModels {
	r.Type = t
	return r
}

func (SearchModels) Method() string { return methodPost }
func (SearchModels) URL() string    { return "/v2/models/searches" }

func (r SearchModels) Body() ([]byte, error) {
	return wire.NewObject().
		Set("model_query.name", r.Name).
		SetString("model_query.type", string(r.Type)).
		Bytes()
}

func (SearchModels) Unmarshal(payload gjson.Result) ([]domain.Model, error) {
	return parseList(payload, "models", domain.ParseModel)
}

// GetModel reads a model with its output info, at the latest version unless
// VersionID is set.
type GetModel struct {
	ID        string
	VersionID string
}

func NewGetModel(id string) GetModel { return GetModel{ID: id} }

func (r GetModel) Version(versionID string) GetModel {
	r.VersionID = versionID
	return r
}

func (GetModel) Method() string { return methodGet }

func (r GetModel) URL() string {
	if r.VersionID == "" {
		return "/v2/models/" + seg(r.ID) + "/output_info"
	}
	return "/v2/models/" + seg(r.ID) + "/versions/" + seg(r.VersionID) + "/output_info"
}

func (GetModel) Body() ([]byte, error) { return nil, nil }

func (GetModel) Unmarshal(payload gjson.Result) (domain.Model, error) {
	return parseOne(payload, "model", domain.ParseModel)
}

type GetModels struct {
	Page Page
}

func (GetModels) Method() string        { return methodGet }
func (r GetModels) URL() string         { return r.Page.url("/v2/models") }
func (GetModels) Body() ([]byte, error) { return nil, nil }

func (GetModels) Unmarshal(payload gjson.Result) ([]domain.Model, error) {
	return parseList(payload, "models", domain.ParseModel)
}

// CreateModel creates a concept model. output_info is sent only when concepts
// or an output setting are given.
type CreateModel struct {
	ID                string
	Name              string
	Concepts          []predictions.Concept
	MutuallyExclusive *bool
	ClosedEnvironment *bool
	Language          string
}

type CreateModelOption func(*CreateModel)

func WithModelName(name string) CreateModelOption {
	return func(r *CreateModel) { r.Name = name }
}

func WithModelConcepts(ids ...string) CreateModelOption {
	return func(r *CreateModel) {
		r.Concepts = append(r.Concepts, lo.Map(ids, func(id string, _ int) predictions.Concept {
			return predictions.NewConcept(id)
		})...)
	}
}

func WithMutuallyExclusive(v bool) CreateModelOption {
	return func(r *CreateModel) { r.MutuallyExclusive = &v }
}

func WithClosedEnvironment(v bool) CreateModelOption {
	return func(r *CreateModel) { r.ClosedEnvironment = &v }
}

func WithModelLanguage(lang string) CreateModelOption {
	return func(r *CreateModel) { r.Language = lang }
}

func NewCreateModel(id string, opts ...CreateModelOption) CreateModel {
	r := CreateModel{ID: id}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (CreateModel) Method() string { return methodPost }
func (CreateModel) URL() string    { return "/v2/models" }

func (r CreateModel) Body() ([]byte, error) {
	var concepts []string
	if len(r.Concepts) > 0 {
		concepts = lo.Map(r.Concepts, func(c predictions.Concept, _ int) string {
			return predictions.Concept{ID: c.ID, Name: c.Name}.Serialize()
		})
	}
	return wire.NewObject().
		Set("model.id", r.ID).
		SetString("model.name", r.Name).
		SetArray("model.output_info.data.concepts", concepts).
		SetBool("model.output_info.output_config.concepts_mutually_exclusive", r.MutuallyExclusive).
		SetBool("model.output_info.output_config.closed_environment", r.ClosedEnvironment).
		SetString("model.output_info.output_config.language", r.Language).
		Bytes()
}

func (CreateModel) Unmarshal(payload gjson.Result) (domain.Model, error) {
	return parseOne(payload, "model", domain.ParseModel)
}

type DeleteModel struct {
	ID string
}

func (DeleteModel) Method() string                        { return methodDelete }
func (r DeleteModel) URL() string                         { return "/v2/models/" + seg(r.ID) }
func (DeleteModel) Body() ([]byte, error)                 { return nil, nil }
func (DeleteModel) Unmarshal(gjson.Result) (Empty, error) { return Empty{}, nil }

type DeleteModelVersion struct {
	ModelID   string
	VersionID string
}

func (DeleteModelVersion) Method() string { return methodDelete }

func (r DeleteModelVersion) URL() string {
	return "/v2/models/" + seg(r.ModelID) + "/versions/" + seg(r.VersionID)
}

func (DeleteModelVersion) Body() ([]byte, error)                 { return nil, nil }
func (DeleteModelVersion) Unmarshal(gjson.Result) (Empty, error) { return Empty{}, nil }

// DeleteAllModels removes every custom model of the application.
type DeleteAllModels struct{}

func (DeleteAllModels) Method() string { return methodDelete }
func (DeleteAllModels) URL() string    { return "/v2/models" }

func (DeleteAllModels) Body() ([]byte, error) {
	return wire.NewObject().Set("delete_all", true).Bytes()
}

func (DeleteAllModels) Unmarshal(gjson.Result) (Empty, error) { return Empty{}, nil }

// TrainModel queues a new version for training. The returned model carries
// the new version, usually in a non-terminal training state.
type TrainModel struct {
	ID string
}

func (TrainModel) Method() string { return methodPost }
func (r TrainModel) URL() string  { return "/v2/models/" + seg(r.ID) + "/versions" }

func (TrainModel) Body() ([]byte, error) { return wire.NewObject().Bytes() }

func (TrainModel) Unmarshal(payload gjson.Result) (domain.Model, error) {
	return parseOne(payload, "model", domain.ParseModel)
}

type GetModelVersion struct {
	ModelID   string
	VersionID string
}

func (GetModelVersion) Method() string { return methodGet }

func (r GetModelVersion) URL() string {
	return "/v2/models/" + seg(r.ModelID) + "/versions/" + seg(r.VersionID)
}

func (GetModelVersion) Body() ([]byte, error) { return nil, nil }

func (GetModelVersion) Unmarshal(payload gjson.Result) (domain.ModelVersion, error) {
	return parseOne(payload, "model_version", domain.ParseModelVersion)
}

type GetModelVersions struct {
	ModelID string
	Page    Page
}

func (GetModelVersions) Method() string { return methodGet }

func (r GetModelVersions) URL() string {
	return r.Page.url("/v2/models/" + seg(r.ModelID) + "/versions")
}

func (GetModelVersions) Body() ([]byte, error) { return nil, nil }

func (GetModelVersions) Unmarshal(payload gjson.Result) ([]domain.ModelVersion, error) {
	return parseList(payload, "model_versions", domain.ParseModelVersion)
}

// ModelEvaluation starts evaluating a trained version. The returned version
// carries the metrics status to poll on.
type ModelEvaluation struct {
	ModelID   string
	VersionID string
}

func (ModelEvaluation) Method() string { return methodPost }

func (r ModelEvaluation) URL() string {
	return "/v2/models/" + seg(r.ModelID) + "/versions/" + seg(r.VersionID) + "/metrics"
}

func (ModelEvaluation) Body() ([]byte, error) { return wire.NewObject().Bytes() }

func (ModelEvaluation) Unmarshal(payload gjson.Result) (domain.ModelVersion, error) {
	return parseOne(payload, "model_version", domain.ParseModelVersion)
}
