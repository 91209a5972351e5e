package domain

import (
	"time"

	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Output is the result of running one input through a model.
type Output[T predictions.Prediction] struct {
	ID        string
	Status    Status
	CreatedAt time.Time
	Model     *Model
	Input     *Input
	Data      []T
}

// ParseOutput reads one outputs[] entry, resolving its data node as kind.
func ParseOutput[T predictions.Prediction](node gjson.Result, kind predictions.Type) (Output[T], error) {
	var (
		out Output[T]
		err error
	)
	if out.ID, err = wire.OptString(node, "id"); err != nil {
		return Output[T]{}, err
	}
	if status := node.Get("status"); wire.Present(status) {
		if out.Status, err = ParseStatus(status); err != nil {
			return Output[T]{}, errors.Wrap(err, "output status")
		}
	}
	if out.CreatedAt, err = wire.OptTime(node, "created_at"); err != nil {
		return Output[T]{}, err
	}
	if model := node.Get("model"); wire.Present(model) && model.IsObject() {
		m, err := ParseModel(model)
		if err != nil {
			return Output[T]{}, errors.Wrap(err, "output model")
		}
		out.Model = &m
	}
	if input := node.Get("input"); wire.Present(input) && input.IsObject() {
		in, err := ParseInput(input)
		if err != nil {
			return Output[T]{}, errors.Wrap(err, "output input")
		}
		out.Input = &in
	}
	if out.Data, err = predictions.DecodeAs[T](kind, node.Get("data")); err != nil {
		return Output[T]{}, err
	}
	return out, nil
}

// ParseOutputs reads every entry of outputs[].
func ParseOutputs[T predictions.Prediction](payload gjson.Result, kind predictions.Type) ([]Output[T], error) {
	items, err := wire.OptArray(payload, "outputs")
	if err != nil {
		return nil, err
	}
	outs := make([]Output[T], 0, len(items))
	for i, item := range items {
		out, err := ParseOutput[T](item, kind)
		if err != nil {
			return nil, errors.Wrapf(err, "outputs[%d]", i)
		}
		outs = append(outs, out)
	}
	return outs, nil
}
