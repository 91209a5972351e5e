package requests

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// ErrNotExactlyOneOutput is returned by Predict when the service answers a
// single-input prediction with zero or several outputs.
var ErrNotExactlyOneOutput = errors.New("the response does not contain exactly one output")

// PredictConfig is the optional output configuration of a prediction. Nil and
// empty fields are not sent; when none is set the body has no model block.
type PredictConfig struct {
	VersionID      string
	Language       string
	MinValue       *decimal.Decimal
	MaxConcepts    *int
	SelectConcepts []predictions.Concept
	SampleMs       *int
	// Kind overrides the variant decoded from outputs. It is needed when T is
	// predictions.Prediction.
	Kind predictions.Type
}

type PredictOption func(*PredictConfig)

func WithModelVersion(id string) PredictOption {
	return func(c *PredictConfig) { c.VersionID = id }
}

func WithLanguage(lang string) PredictOption {
	return func(c *PredictConfig) { c.Language = lang }
}

func WithMinValue(v decimal.Decimal) PredictOption {
	return func(c *PredictConfig) { c.MinValue = &v }
}

func WithMaxConcepts(n int) PredictOption {
	return func(c *PredictConfig) { c.MaxConcepts = &n }
}

func WithSelectConcepts(concepts ...predictions.Concept) PredictOption {
	return func(c *PredictConfig) { c.SelectConcepts = append(c.SelectConcepts, concepts...) }
}

// WithSampleMs asks for one video frame prediction every ms milliseconds.
func WithSampleMs(ms int) PredictOption {
	return func(c *PredictConfig) { c.SampleMs = &ms }
}

func WithPredictionType(kind predictions.Type) PredictOption {
	return func(c *PredictConfig) { c.Kind = kind }
}

func newPredictConfig(opts []PredictOption) PredictConfig {
	var c PredictConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c PredictConfig) url(modelID string) string {
	if c.VersionID == "" {
		return "/v2/models/" + seg(modelID) + "/outputs"
	}
	return "/v2/models/" + seg(modelID) + "/versions/" + seg(c.VersionID) + "/outputs"
}

func (c PredictConfig) body(inputs []domain.Input) ([]byte, error) {
	const prefix = "model.output_info.output_config."
	o := wire.NewObject().
		SetArray("inputs", lo.Map(inputs, func(in domain.Input, _ int) string { return in.Serialize() })).
		SetString(prefix+"language", c.Language)
	if c.MinValue != nil {
		o.SetRaw(prefix+"min_value", c.MinValue.String())
	}
	o.SetInt(prefix+"max_concepts", c.MaxConcepts).
		SetInt(prefix+"sample_ms", c.SampleMs)
	if c.SelectConcepts != nil {
		o.SetArray(prefix+"select_concepts", conceptArray(c.SelectConcepts))
	}
	return o.Bytes()
}

func (c PredictConfig) kind(defaultKind predictions.Type) predictions.Type {
	if c.Kind != "" {
		return c.Kind
	}
	if defaultKind == "" {
		return predictions.TypeUnknown
	}
	return defaultKind
}

// Predict runs one input through a model and decodes its output as T.
type Predict[T predictions.Prediction] struct {
	ModelID string
	Input   domain.Input
	Config  PredictConfig
}

func NewPredict[T predictions.Prediction](modelID string, input domain.Input, opts ...PredictOption) Predict[T] {
	return Predict[T]{ModelID: modelID, Input: input, Config: newPredictConfig(opts)}
}

func (Predict[T]) Method() string          { return methodPost }
func (r Predict[T]) URL() string           { return r.Config.url(r.ModelID) }
func (r Predict[T]) Body() ([]byte, error) { return r.Config.body([]domain.Input{r.Input}) }
func (Predict[T]) Name() string            { return "Predict" }

func (r Predict[T]) Unmarshal(payload gjson.Result) (domain.Output[T], error) {
	items, err := wire.OptArray(payload, "outputs")
	if err != nil {
		return domain.Output[T]{}, err
	}
	if len(items) != 1 {
		return domain.Output[T]{}, errors.WithMessagef(ErrNotExactlyOneOutput, "got %d", len(items))
	}
	out, err := domain.ParseOutput[T](items[0], r.Config.kind(predictions.KindOf[T]()))
	if err != nil {
		return domain.Output[T]{}, errors.Wrap(err, "outputs[0]")
	}
	return out, nil
}

// BatchPredict runs several inputs through a model in one call.
type BatchPredict[T predictions.Prediction] struct {
	ModelID string
	Inputs  []domain.Input
	Config  PredictConfig
}

func NewBatchPredict[T predictions.Prediction](modelID string, inputs []domain.Input, opts ...PredictOption) BatchPredict[T] {
	return BatchPredict[T]{ModelID: modelID, Inputs: inputs, Config: newPredictConfig(opts)}
}

func (BatchPredict[T]) Method() string          { return methodPost }
func (r BatchPredict[T]) URL() string           { return r.Config.url(r.ModelID) }
func (r BatchPredict[T]) Body() ([]byte, error) { return r.Config.body(r.Inputs) }
func (BatchPredict[T]) Name() string            { return "BatchPredict" }

func (r BatchPredict[T]) Unmarshal(payload gjson.Result) ([]domain.Output[T], error) {
	return domain.ParseOutputs[T](payload, r.Config.kind(predictions.KindOf[T]()))
}
