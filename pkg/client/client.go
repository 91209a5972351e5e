// Package client is the entry point for callers: one method per service call
// plus helpers that wait on training and evaluation.
package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osvaldoandrade/visiongo/pkg/api"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/poll"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"
	"github.com/osvaldoandrade/visiongo/pkg/requests"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
)

type Client struct {
	exec *api.Executor
	poll poll.Config
}

type Option func(*options)

type options struct {
	execOpts []api.Option
	poll     poll.Config
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.execOpts = append(o.execOpts, api.WithLogger(logger))
		o.poll.Logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.execOpts = append(o.execOpts, api.WithTracer(tracer)) }
}

// WithPollConfig sets the interval, bound and policy of the Wait helpers.
// Operation is filled in per call.
func WithPollConfig(cfg poll.Config) Option {
	return func(o *options) {
		logger := o.poll.Logger
		o.poll = cfg
		if o.poll.Logger == nil {
			o.poll.Logger = logger
		}
	}
}

func New(transport api.Transport, opts ...Option) *Client {
	o := options{poll: poll.DefaultConfig("")}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{exec: api.NewExecutor(transport, o.execOpts...), poll: o.poll}
}

// Executor exposes the executor for requests the facade does not wrap.
func (c *Client) Executor() *api.Executor { return c.exec }

func (c *Client) GetConcept(ctx context.Context, id string) (api.Response[predictions.Concept], error) {
	return api.Execute[predictions.Concept](ctx, c.exec, requests.NewGetConcept(id))
}

func (c *Client) GetConcepts(ctx context.Context, page requests.Page) (api.Response[[]predictions.Concept], error) {
	return api.Execute[[]predictions.Concept](ctx, c.exec, requests.GetConcepts{Page: page})
}

func (c *Client) AddConcepts(ctx context.Context, concepts ...predictions.Concept) (api.Response[[]predictions.Concept], error) {
	return api.Execute[[]predictions.Concept](ctx, c.exec, requests.NewAddConcepts(concepts...))
}

func (c *Client) ModifyConcepts(ctx context.Context, action requests.ModifyAction, concepts ...predictions.Concept) (api.Response[[]predictions.Concept], error) {
	return api.Execute[[]predictions.Concept](ctx, c.exec, requests.NewModifyConcepts(action, concepts...))
}

func (c *Client) SearchConcepts(ctx context.Context, name, language string) (api.Response[[]predictions.Concept], error) {
	return api.Execute[[]predictions.Concept](ctx, c.exec, requests.NewSearchConcepts(name).InLanguage(language))
}

// SearchModels matches models by name; an empty modelType searches every type.
func (c *Client) SearchModels(ctx context.Context, name string, modelType domain.ModelType) (api.Response[[]domain.Model], error) {
	return api.Execute[[]domain.Model](ctx, c.exec, requests.NewSearchModels(name).OfType(modelType))
}

// GetModel reads a model at the latest version, or at versionID when set.
func (c *Client) GetModel(ctx context.Context, id, versionID string) (api.Response[domain.Model], error) {
	return api.Execute[domain.Model](ctx, c.exec, requests.NewGetModel(id).Version(versionID))
}

func (c *Client) GetModels(ctx context.Context, page requests.Page) (api.Response[[]domain.Model], error) {
	return api.Execute[[]domain.Model](ctx, c.exec, requests.GetModels{Page: page})
}

func (c *Client) CreateModel(ctx context.Context, id string, opts ...requests.CreateModelOption) (api.Response[domain.Model], error) {
	return api.Execute[domain.Model](ctx, c.exec, requests.NewCreateModel(id, opts...))
}

func (c *Client) DeleteModel(ctx context.Context, id string) (api.Response[requests.Empty], error) {
	return api.Execute[requests.Empty](ctx, c.exec, requests.DeleteModel{ID: id})
}

func (c *Client) DeleteModelVersion(ctx context.Context, modelID, versionID string) (api.Response[requests.Empty], error) {
	return api.Execute[requests.Empty](ctx, c.exec, requests.DeleteModelVersion{ModelID: modelID, VersionID: versionID})
}

func (c *Client) DeleteAllModels(ctx context.Context) (api.Response[requests.Empty], error) {
	return api.Execute[requests.Empty](ctx, c.exec, requests.DeleteAllModels{})
}

func (c *Client) TrainModel(ctx context.Context, id string) (api.Response[domain.Model], error) {
	return api.Execute[domain.Model](ctx, c.exec, requests.TrainModel{ID: id})
}

func (c *Client) GetModelVersion(ctx context.Context, modelID, versionID string) (api.Response[domain.ModelVersion], error) {
	return api.Execute[domain.ModelVersion](ctx, c.exec, requests.GetModelVersion{ModelID: modelID, VersionID: versionID})
}

func (c *Client) GetModelVersions(ctx context.Context, modelID string, page requests.Page) (api.Response[[]domain.ModelVersion], error) {
	return api.Execute[[]domain.ModelVersion](ctx, c.exec, requests.GetModelVersions{ModelID: modelID, Page: page})
}

func (c *Client) ModelEvaluation(ctx context.Context, modelID, versionID string) (api.Response[domain.ModelVersion], error) {
	return api.Execute[domain.ModelVersion](ctx, c.exec, requests.ModelEvaluation{ModelID: modelID, VersionID: versionID})
}

func (c *Client) AddInputs(ctx context.Context, inputs ...domain.Input) (api.Response[[]domain.Input], error) {
	return api.Execute[[]domain.Input](ctx, c.exec, requests.NewAddInputs(inputs...))
}

func (c *Client) GetInput(ctx context.Context, id string) (api.Response[domain.Input], error) {
	return api.Execute[domain.Input](ctx, c.exec, requests.GetInput{ID: id})
}

func (c *Client) GetInputs(ctx context.Context, page requests.Page) (api.Response[[]domain.Input], error) {
	return api.Execute[[]domain.Input](ctx, c.exec, requests.GetInputs{Page: page})
}

func (c *Client) DeleteInputs(ctx context.Context, ids ...string) (api.Response[requests.Empty], error) {
	return api.Execute[requests.Empty](ctx, c.exec, requests.NewDeleteInputs(ids...))
}

func (c *Client) DeleteAllInputs(ctx context.Context) (api.Response[requests.Empty], error) {
	return api.Execute[requests.Empty](ctx, c.exec, requests.DeleteAllInputs())
}

func (c *Client) GetInputsStatus(ctx context.Context) (api.Response[domain.InputsStatus], error) {
	return api.Execute[domain.InputsStatus](ctx, c.exec, requests.GetInputsStatus{})
}

// Predict runs one input through modelID and decodes the output as T.
func Predict[T predictions.Prediction](ctx context.Context, c *Client, modelID string, input domain.Input, opts ...requests.PredictOption) (api.Response[domain.Output[T]], error) {
	return api.Execute[domain.Output[T]](ctx, c.exec, requests.NewPredict[T](modelID, input, opts...))
}

// PredictAsync starts Predict without waiting for it. The future's Done
// channel closes once the call has finished.
func PredictAsync[T predictions.Prediction](ctx context.Context, c *Client, modelID string, input domain.Input, opts ...requests.PredictOption) *api.Future[domain.Output[T]] {
	return api.ExecuteAsync[domain.Output[T]](ctx, c.exec, requests.NewPredict[T](modelID, input, opts...))
}

func BatchPredict[T predictions.Prediction](ctx context.Context, c *Client, modelID string, inputs []domain.Input, opts ...requests.PredictOption) (api.Response[[]domain.Output[T]], error) {
	return api.Execute[[]domain.Output[T]](ctx, c.exec, requests.NewBatchPredict[T](modelID, inputs, opts...))
}

// PredictEach runs one Predict call per input, at most limit at a time.
func PredictEach[T predictions.Prediction](ctx context.Context, c *Client, modelID string, inputs []domain.Input, limit int, opts ...requests.PredictOption) ([]api.Response[domain.Output[T]], error) {
	reqs := make([]api.Request[domain.Output[T]], len(inputs))
	for i, in := range inputs {
		reqs[i] = requests.NewPredict[T](modelID, in, opts...)
	}
	return api.ExecuteAll(ctx, c.exec, reqs, limit)
}

// TrainingFailedError is a training that ended in a terminal state other than
// trained.
type TrainingFailedError struct {
	ModelID string
	Status  domain.ModelTrainingStatus
}

func (e *TrainingFailedError) Error() string {
	return fmt.Sprintf("model %s training ended with %d: %s", e.ModelID, e.Status.Code, e.Status.Description)
}

// EvaluationFailedError is an evaluation that ended in a terminal state other
// than evaluated.
type EvaluationFailedError struct {
	ModelID   string
	VersionID string
	Status    domain.ModelMetricsStatus
}

func (e *EvaluationFailedError) Error() string {
	return fmt.Sprintf("model %s version %s evaluation ended with %d: %s", e.ModelID, e.VersionID, e.Status.Code, e.Status.Description)
}

// WaitForTraining polls the latest version of modelID until its training
// state is terminal. A terminal state other than trained yields
// *TrainingFailedError alongside the model.
func (c *Client) WaitForTraining(ctx context.Context, modelID string) (domain.Model, error) {
	cfg := c.poll
	cfg.Operation = "training"
	fetch := func(ctx context.Context) (api.Response[domain.Model], error) {
		return c.GetModel(ctx, modelID, "")
	}
	resp, err := poll.Until(ctx, cfg, fetch, func(m domain.Model) bool {
		return m.Version != nil && m.Version.Status.IsTerminal()
	})
	if err != nil {
		return domain.Model{}, err
	}
	m, err := resp.Value()
	if err != nil {
		return domain.Model{}, err
	}
	if !m.Version.Status.IsTrained() {
		return m, &TrainingFailedError{ModelID: modelID, Status: m.Version.Status}
	}
	return m, nil
}

// WaitForEvaluation polls a model version until its metrics state is terminal.
func (c *Client) WaitForEvaluation(ctx context.Context, modelID, versionID string) (domain.ModelVersion, error) {
	cfg := c.poll
	cfg.Operation = "evaluation"
	fetch := func(ctx context.Context) (api.Response[domain.ModelVersion], error) {
		return c.GetModelVersion(ctx, modelID, versionID)
	}
	resp, err := poll.Until(ctx, cfg, fetch, func(v domain.ModelVersion) bool {
		return v.Metrics != nil && v.Metrics.IsTerminal()
	})
	if err != nil {
		return domain.ModelVersion{}, err
	}
	v, err := resp.Value()
	if err != nil {
		return domain.ModelVersion{}, err
	}
	if !v.Metrics.IsEvaluated() {
		return v, &EvaluationFailedError{ModelID: modelID, VersionID: versionID, Status: *v.Metrics}
	}
	return v, nil
}

// TrainAndWait queues training and waits for it to finish.
func (c *Client) TrainAndWait(ctx context.Context, modelID string) (domain.Model, error) {
	resp, err := c.TrainModel(ctx, modelID)
	if err != nil {
		return domain.Model{}, err
	}
	if _, err := resp.Value(); err != nil {
		return domain.Model{}, errors.Wrapf(err, "train model %s", modelID)
	}
	return c.WaitForTraining(ctx, modelID)
}
