// Package predictions models the result shapes a model run can produce and
// resolves them from the untyped "data" node of a prediction output.
//
// The set of variants is closed. An unrecognised discriminator never fails a
// response: it resolves to Unknown, which keeps the raw payload so callers built
// against an older variant set can still inspect it.
package predictions

import (
	"fmt"

	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Type is the discriminator naming a prediction variant.
type Type string

const (
	TypeConcept       Type = "concept"
	TypeColor         Type = "color"
	TypeRegion        Type = "region"
	TypeLogo          Type = "logo"
	TypeFaceDetection Type = "face-detection"
	TypeDemographics  Type = "demographics"
	TypeFocus         Type = "focus"
	TypeEmbedding     Type = "embedding"
	TypeFaceEmbedding Type = "face-embedding"
	TypeCluster       Type = "cluster"
	TypeFrame         Type = "frame"
	TypeUnknown       Type = "unknown"
)

// Types lists every known discriminator, fallback excluded.
var Types = []Type{
	TypeConcept, TypeColor, TypeRegion, TypeLogo, TypeFaceDetection, TypeDemographics,
	TypeFocus, TypeEmbedding, TypeFaceEmbedding, TypeCluster, TypeFrame,
}

func (t Type) MarshalText() ([]byte, error) { return []byte(string(t)), nil }

// Prediction is one typed result of a model run.
type Prediction interface {
	Type() Type
	// Serialize encodes the prediction in the wire form Parse accepts.
	Serialize() string
	prediction()
}

// DecodeError reports a payload that does not match the shape of a variant.
type DecodeError struct {
	Kind Type
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s prediction: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(kind Type, err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Kind: kind, Err: err}
}

// Unknown is the fallback for a discriminator outside the known set.
type Unknown struct {
	Kind Type
	Raw  string
}

func (Unknown) Type() Type          { return TypeUnknown }
func (u Unknown) Serialize() string { return u.Raw }
func (Unknown) prediction()         {}

// IsUnknown reports whether p is the fallback variant.
func IsUnknown(p Prediction) bool {
	_, ok := p.(Unknown)
	return ok
}

// KindOf returns the discriminator of the variant type T. It is empty when T is
// the Prediction interface itself.
func KindOf[T Prediction]() Type {
	var zero T
	if any(zero) == nil {
		return ""
	}
	return zero.Type()
}

// Resolve reads every prediction of the given kind from an output's data node.
// An absent list yields no predictions.
func Resolve(kind Type, data gjson.Result) ([]Prediction, error) {
	switch kind {
	case TypeConcept:
		return resolveList(kind, data, "concepts")
	case TypeColor:
		return resolveList(kind, data, "colors")
	case TypeRegion, TypeLogo, TypeFaceDetection, TypeDemographics, TypeFaceEmbedding:
		return resolveList(kind, data, "regions")
	case TypeFocus:
		return resolveFocus(data)
	case TypeEmbedding:
		return resolveList(kind, data, "embeddings")
	case TypeCluster:
		return resolveList(kind, data, "clusters")
	case TypeFrame:
		return resolveList(kind, data, "frames")
	default:
		return []Prediction{Unknown{Kind: kind, Raw: data.Raw}}, nil
	}
}

// Parse reads a single prediction item of the given kind.
func Parse(kind Type, node gjson.Result) (Prediction, error) {
	switch kind {
	case TypeConcept:
		return ParseConcept(node)
	case TypeColor:
		return parseColor(node)
	case TypeRegion:
		return parseRegion(node)
	case TypeLogo:
		return parseLogo(node)
	case TypeFaceDetection:
		return parseFaceDetection(node)
	case TypeDemographics:
		return parseDemographics(node)
	case TypeFocus:
		return parseFocus(node, nil)
	case TypeEmbedding:
		return parseEmbedding(node)
	case TypeFaceEmbedding:
		return parseFaceEmbedding(node)
	case TypeCluster:
		return parseCluster(node)
	case TypeFrame:
		return parseFrame(node)
	default:
		return Unknown{Kind: kind, Raw: node.Raw}, nil
	}
}

// Decode resolves the predictions of variant T from an output's data node.
func Decode[T Prediction](data gjson.Result) ([]T, error) {
	return DecodeAs[T](KindOf[T](), data)
}

// DecodeAs resolves predictions of an explicit kind and asserts them to T.
// It serves callers that pick the kind at runtime with T set to Prediction.
func DecodeAs[T Prediction](kind Type, data gjson.Result) ([]T, error) {
	items, err := Resolve(kind, data)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(items))
	for _, p := range items {
		v, ok := p.(T)
		if !ok {
			return nil, &DecodeError{Kind: kind, Err: errors.Errorf("resolved %s is not a %T", p.Type(), v)}
		}
		out = append(out, v)
	}
	return out, nil
}

func resolveList(kind Type, data gjson.Result, key string) ([]Prediction, error) {
	list := data.Get(key)
	if !wire.Present(list) {
		return nil, nil
	}
	if !list.IsArray() {
		return nil, &DecodeError{Kind: kind, Err: errors.Errorf("field %q is not an array", key)}
	}
	items := list.Array()
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]Prediction, 0, len(items))
	for i, item := range items {
		p, err := Parse(kind, item)
		if err != nil {
			return nil, errors.Wrapf(err, "%s[%d]", key, i)
		}
		out = append(out, p)
	}
	return out, nil
}
