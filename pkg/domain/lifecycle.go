package domain

import (
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// ModelTrainingCode is the status of a model version's training.
type ModelTrainingCode int

const (
	ModelTrained                      ModelTrainingCode = 21100
	ModelTraining                     ModelTrainingCode = 21101
	ModelUntrained                    ModelTrainingCode = 21102
	ModelQueuedForTraining            ModelTrainingCode = 21103
	ModelUploading                    ModelTrainingCode = 21104
	ModelUploadingFailed              ModelTrainingCode = 21105
	ModelTrainingFailed               ModelTrainingCode = 21106
	ModelTrainingNoData               ModelTrainingCode = 21110
	ModelTrainingNoPositiveExamples   ModelTrainingCode = 21111
	ModelTrainingOneVsNSingleClass    ModelTrainingCode = 21112
	ModelTrainingTimedOut             ModelTrainingCode = 21113
	ModelTrainingWaitingError         ModelTrainingCode = 21114
	ModelTrainingUnknownError         ModelTrainingCode = 21115
	ModelTrainingMsgRedeliver         ModelTrainingCode = 21116
	ModelTrainingInsufficientData     ModelTrainingCode = 21117
	ModelTrainingInvalidParams        ModelTrainingCode = 21118
	ModelTrainingInvalidDataTolerance ModelTrainingCode = 21119
)

var terminalTrainingCodes = []ModelTrainingCode{
	ModelTrained,
	ModelUploadingFailed,
	ModelTrainingFailed,
	ModelTrainingNoData,
	ModelTrainingNoPositiveExamples,
	ModelTrainingOneVsNSingleClass,
	ModelTrainingTimedOut,
	ModelTrainingWaitingError,
	ModelTrainingUnknownError,
	ModelTrainingInsufficientData,
	ModelTrainingInvalidParams,
	ModelTrainingInvalidDataTolerance,
}

// IsTerminal reports whether training will not change state on its own.
func (c ModelTrainingCode) IsTerminal() bool {
	return lo.Contains(terminalTrainingCodes, c)
}

type ModelTrainingStatus struct {
	Code        ModelTrainingCode
	Description string
}

func (s ModelTrainingStatus) IsTerminal() bool { return s.Code.IsTerminal() }
func (s ModelTrainingStatus) IsTrained() bool  { return s.Code == ModelTrained }

func (s ModelTrainingStatus) Serialize() string {
	return serializeStatus(int(s.Code), s.Description).String()
}

func ParseModelTrainingStatus(node gjson.Result) (ModelTrainingStatus, error) {
	code, desc, err := parseStatus[ModelTrainingCode](node)
	if err != nil {
		return ModelTrainingStatus{}, err
	}
	return ModelTrainingStatus{Code: code, Description: desc}, nil
}

// ModelMetricsCode is the status of a model version's evaluation.
type ModelMetricsCode int

const (
	ModelEvaluated              ModelMetricsCode = 21300
	ModelEvaluating             ModelMetricsCode = 21301
	ModelNotEvaluated           ModelMetricsCode = 21302
	ModelQueuedForEvaluation    ModelMetricsCode = 21303
	ModelEvaluationTimedOut     ModelMetricsCode = 21310
	ModelEvaluationWaitingError ModelMetricsCode = 21311
	ModelEvaluationUnknownError ModelMetricsCode = 21312
)

var terminalMetricsCodes = []ModelMetricsCode{
	ModelEvaluated,
	ModelEvaluationTimedOut,
	ModelEvaluationWaitingError,
	ModelEvaluationUnknownError,
}

func (c ModelMetricsCode) IsTerminal() bool {
	return lo.Contains(terminalMetricsCodes, c)
}

type ModelMetricsStatus struct {
	Code        ModelMetricsCode
	Description string
}

func (s ModelMetricsStatus) IsTerminal() bool  { return s.Code.IsTerminal() }
func (s ModelMetricsStatus) IsEvaluated() bool { return s.Code == ModelEvaluated }

func (s ModelMetricsStatus) Serialize() string {
	return serializeStatus(int(s.Code), s.Description).String()
}

func ParseModelMetricsStatus(node gjson.Result) (ModelMetricsStatus, error) {
	code, desc, err := parseStatus[ModelMetricsCode](node)
	if err != nil {
		return ModelMetricsStatus{}, err
	}
	return ModelMetricsStatus{Code: code, Description: desc}, nil
}

// InputStatusCode is the processing status of an uploaded input.
type InputStatusCode int

const (
	InputDownloadSuccess    InputStatusCode = 30000
	InputDownloadPending    InputStatusCode = 30001
	InputDownloadFailed     InputStatusCode = 30002
	InputDownloadInProgress InputStatusCode = 30003
)

func (c InputStatusCode) IsTerminal() bool {
	return c == InputDownloadSuccess || c == InputDownloadFailed
}

type InputStatus struct {
	Code        InputStatusCode
	Description string
}

func (s InputStatus) Serialize() string {
	return serializeStatus(int(s.Code), s.Description).String()
}

func ParseInputStatus(node gjson.Result) (InputStatus, error) {
	code, desc, err := parseStatus[InputStatusCode](node)
	if err != nil {
		return InputStatus{}, err
	}
	return InputStatus{Code: code, Description: desc}, nil
}
