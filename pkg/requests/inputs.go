package requests

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/domain"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// ErrNoInputsToDelete is returned by DeleteInputs.Body when neither ids nor
// delete-all were given.
var ErrNoInputsToDelete = errors.New("delete inputs: no ids given")

type AddInputs struct {
	Inputs []domain.Input
}

func NewAddInputs(inputs ...domain.Input) AddInputs { return AddInputs{Inputs: inputs} }

func (AddInputs) Method() string { return methodPost }
func (AddInputs) URL() string    { return "/v2/inputs" }

func (r AddInputs) Body() ([]byte, error) {
	return wire.NewObject().
		SetArray("inputs", lo.Map(r.Inputs, func(in domain.Input, _ int) string { return in.Serialize() })).
		Bytes()
}

func (AddInputs) Unmarshal(payload gjson.Result) ([]domain.Input, error) {
	return parseList(payload, "inputs", domain.ParseInput)
}

type GetInput struct {
	ID string
}

func (GetInput) Method() string        { return methodGet }
func (r GetInput) URL() string         { return "/v2/inputs/" + seg(r.ID) }
func (GetInput) Body() ([]byte, error) { return nil, nil }

func (GetInput) Unmarshal(payload gjson.Result) (domain.Input, error) {
	return parseOne(payload, "input", domain.ParseInput)
}

type GetInputs struct {
	Page Page
}

func (GetInputs) Method() string        { return methodGet }
func (r GetInputs) URL() string         { return r.Page.url("/v2/inputs") }
func (GetInputs) Body() ([]byte, error) { return nil, nil }

func (GetInputs) Unmarshal(payload gjson.Result) ([]domain.Input, error) {
	return parseList(payload, "inputs", domain.ParseInput)
}

// DeleteInputs removes the listed inputs, or every input when All is set.
type DeleteInputs struct {
	IDs []string
	All bool
}

func NewDeleteInputs(ids ...string) DeleteInputs { return DeleteInputs{IDs: ids} }

func DeleteAllInputs() DeleteInputs { return DeleteInputs{All: true} }

func (DeleteInputs) Method() string { return methodDelete }
func (DeleteInputs) URL() string    { return "/v2/inputs" }

func (r DeleteInputs) Body() ([]byte, error) {
	if r.All {
		return wire.NewObject().Set("delete_all", true).Bytes()
	}
	if len(r.IDs) == 0 {
		return nil, ErrNoInputsToDelete
	}
	return wire.NewObject().Set("ids", lo.Uniq(r.IDs)).Bytes()
}

func (DeleteInputs) Unmarshal(gjson.Result) (Empty, error) { return Empty{}, nil }

type GetInputsStatus struct{}

func (GetInputsStatus) Method() string        { return methodGet }
func (GetInputsStatus) URL() string           { return "/v2/inputs/status" }
func (GetInputsStatus) Body() ([]byte, error) { return nil, nil }

func (GetInputsStatus) Unmarshal(payload gjson.Result) (domain.InputsStatus, error) {
	return parseOne(payload, "counts", domain.ParseInputsStatus)
}
