package domain

import (
	"encoding"
	"fmt"
	"strings"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/outputinfo"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/tidwall/gjson"
)

// ModelType is the type_ext a model search filters on.
type ModelType string

const (
	ModelTypeConcept       ModelType = "concept"
	ModelTypeColor         ModelType = "color"
	ModelTypeDemographics  ModelType = "facedetect-demographics"
	ModelTypeDetection     ModelType = "detect-concept"
	ModelTypeEmbedding     ModelType = "embed"
	ModelTypeFaceConcepts  ModelType = "facedetect-identity"
	ModelTypeFaceDetection ModelType = "facedetect"
	ModelTypeFaceEmbedding ModelType = "facedetect-embed"
	ModelTypeFocus         ModelType = "focus"
	ModelTypeLogo          ModelType = "logo"
	ModelTypeCluster       ModelType = "cluster"
)

var modelPredictionTypes = map[ModelType]predictions.Type{
	ModelTypeConcept:       predictions.TypeConcept,
	ModelTypeColor:         predictions.TypeColor,
	ModelTypeDemographics:  predictions.TypeDemographics,
	ModelTypeDetection:     predictions.TypeRegion,
	ModelTypeEmbedding:     predictions.TypeEmbedding,
	ModelTypeFaceConcepts:  predictions.TypeFaceDetection,
	ModelTypeFaceDetection: predictions.TypeFaceDetection,
	ModelTypeFaceEmbedding: predictions.TypeFaceEmbedding,
	ModelTypeFocus:         predictions.TypeFocus,
	ModelTypeLogo:          predictions.TypeLogo,
	ModelTypeCluster:       predictions.TypeCluster,
}

var (
	_ encoding.BinaryMarshaler = ModelType("")
	_ encoding.TextMarshaler   = ModelType("")
)

func (t ModelType) MarshalBinary() ([]byte, error) { return []byte(string(t)), nil }
func (t ModelType) MarshalText() ([]byte, error)   { return []byte(string(t)), nil }

// PredictionType returns the prediction variant the model type produces.
func (t ModelType) PredictionType() predictions.Type {
	if kind, ok := modelPredictionTypes[t]; ok {
		return kind
	}
	return predictions.TypeUnknown
}

func ParseModelType(s string) (ModelType, error) {
	t := ModelType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := modelPredictionTypes[t]; !ok {
		return "", fmt.Errorf("unknown model type %q", s)
	}
	return t, nil
}

// ModelVersion is one trained snapshot of a model.
type ModelVersion struct {
	ID                 string
	CreatedAt          time.Time
	Status             ModelTrainingStatus
	ActiveConceptCount *int
	TotalInputCount    *int
	Metrics            *ModelMetricsStatus
}

func (v ModelVersion) Serialize() string {
	o := wire.NewObject().Set("id", v.ID)
	if !v.CreatedAt.IsZero() {
		o.Set("created_at", wire.FormatTime(v.CreatedAt))
	}
	if v.Status.Code != 0 {
		o.SetRaw("status", v.Status.Serialize())
	}
	o.SetInt("active_concept_count", v.ActiveConceptCount).
		SetInt("total_input_count", v.TotalInputCount)
	if v.Metrics != nil {
		o.SetRaw("metrics.status", v.Metrics.Serialize())
	}
	return o.String()
}

func ParseModelVersion(node gjson.Result) (ModelVersion, error) {
	var (
		v   ModelVersion
		err error
	)
	if v.ID, err = wire.String(node, "id"); err != nil {
		return ModelVersion{}, err
	}
	if v.CreatedAt, err = wire.OptTime(node, "created_at"); err != nil {
		return ModelVersion{}, err
	}
	if status := node.Get("status"); wire.Present(status) {
		if v.Status, err = ParseModelTrainingStatus(status); err != nil {
			return ModelVersion{}, fmt.Errorf("model_version status: %w", err)
		}
	}
	if v.ActiveConceptCount, err = wire.OptInt(node, "active_concept_count"); err != nil {
		return ModelVersion{}, err
	}
	if v.TotalInputCount, err = wire.OptInt(node, "total_input_count"); err != nil {
		return ModelVersion{}, err
	}
	if metrics := node.Get("metrics.status"); wire.Present(metrics) {
		m, err := ParseModelMetricsStatus(metrics)
		if err != nil {
			return ModelVersion{}, fmt.Errorf("model_version metrics: %w", err)
		}
		v.Metrics = &m
	}
	return v, nil
}

// Model is a model as listed or fetched from the service. OutputInfo and
// Version are nil when the response leaves them out.
type Model struct {
	ID          string
	Name        string
	AppID       string
	DisplayName string
	CreatedAt   time.Time
	OutputInfo  outputinfo.OutputInfo
	Version     *ModelVersion
}

// PredictionType returns the prediction variant the model produces, derived
// from its output info.
func (m Model) PredictionType() predictions.Type {
	if m.OutputInfo == nil {
		return predictions.TypeUnknown
	}
	if t := ModelType(m.OutputInfo.TypeExt()).PredictionType(); t != predictions.TypeUnknown {
		return t
	}
	return ModelType(m.OutputInfo.Type()).PredictionType()
}

func (m Model) Serialize() string {
	o := wire.NewObject().
		Set("id", m.ID).
		SetString("name", m.Name).
		SetString("app_id", m.AppID).
		SetString("display_name", m.DisplayName)
	if !m.CreatedAt.IsZero() {
		o.Set("created_at", wire.FormatTime(m.CreatedAt))
	}
	if m.OutputInfo != nil {
		o.SetRaw("output_info", m.OutputInfo.Serialize())
	}
	if m.Version != nil {
		o.SetRaw("model_version", m.Version.Serialize())
	}
	return o.String()
}

func ParseModel(node gjson.Result) (Model, error) {
	var (
		m   Model
		err error
	)
	if m.ID, err = wire.String(node, "id"); err != nil {
		return Model{}, err
	}
	if m.Name, err = wire.OptString(node, "name"); err != nil {
		return Model{}, err
	}
	if m.AppID, err = wire.OptString(node, "app_id"); err != nil {
		return Model{}, err
	}
	if m.DisplayName, err = wire.OptString(node, "display_name"); err != nil {
		return Model{}, err
	}
	if m.CreatedAt, err = wire.OptTime(node, "created_at"); err != nil {
		return Model{}, err
	}
	if info := node.Get("output_info"); wire.Present(info) {
		if m.OutputInfo, err = outputinfo.Resolve(info); err != nil {
			return Model{}, err
		}
	}
	if version := node.Get("model_version"); wire.Present(version) {
		v, err := ParseModelVersion(version)
		if err != nil {
			return Model{}, err
		}
		m.Version = &v
	}
	return m, nil
}
