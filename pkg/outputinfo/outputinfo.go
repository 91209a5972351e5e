// Package outputinfo models the output description a model publishes about
// itself: its type, the concepts it knows and how its predictions are
// configured.
//
// The variant is selected by type_ext, falling back to type when type_ext is
// absent. Unrecognised discriminators resolve to Unknown, which keeps the raw
// node, matching the policy of package predictions.
package outputinfo

import (
	"fmt"

	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/tidwall/gjson"
)

// OutputInfo describes a model's output shape.
type OutputInfo interface {
	Type() string
	TypeExt() string
	Message() string
	Serialize() string
	outputInfo()
}

// Header holds the fields every output info carries. Msg is empty when the
// service omits the message.
type Header struct {
	Kind    string
	KindExt string
	Msg     string
}

func (h Header) Type() string    { return h.Kind }
func (h Header) TypeExt() string { return h.KindExt }
func (h Header) Message() string { return h.Msg }
func (Header) outputInfo()       {}

func (h Header) object() *wire.Object {
	return wire.NewObject().
		SetString("type", h.Kind).
		SetString("type_ext", h.KindExt).
		SetString("message", h.Msg)
}

// ConceptOutputInfo describes a classifier. The pointer fields are nil when
// the model does not state them.
type ConceptOutputInfo struct {
	Header
	Concepts          []predictions.Concept
	MutuallyExclusive *bool
	ClosedEnvironment *bool
	Language          string
}

func (c ConceptOutputInfo) Serialize() string {
	return c.object().
		SetArray("data.concepts", predictions.SerializeConcepts(c.Concepts)).
		SetBool("output_config.concepts_mutually_exclusive", c.MutuallyExclusive).
		SetBool("output_config.closed_environment", c.ClosedEnvironment).
		SetString("output_config.language", c.Language).
		String()
}

// ConceptsOutputInfo is shared by the variants whose only extra is the list of
// concepts they can report.
type ConceptsOutputInfo struct {
	Header
	Concepts []predictions.Concept
}

func (c ConceptsOutputInfo) Serialize() string {
	return c.object().
		SetArray("data.concepts", predictions.SerializeConcepts(c.Concepts)).
		String()
}

type (
	ColorOutputInfo      struct{ ConceptsOutputInfo }
	DetectionOutputInfo  struct{ ConceptsOutputInfo }
	LogoOutputInfo       struct{ ConceptsOutputInfo }
	RegressionOutputInfo struct{ ConceptsOutputInfo }
)

// FaceDetectionOutputInfo covers plain face detection and celebrity
// recognition (facedetect-identity).
type FaceDetectionOutputInfo struct{ ConceptsOutputInfo }

type HeaderOnly struct{ Header }

func (h HeaderOnly) Serialize() string { return h.object().String() }

type (
	DemographicsOutputInfo  struct{ HeaderOnly }
	FaceEmbeddingOutputInfo struct{ HeaderOnly }
	FocusOutputInfo         struct{ HeaderOnly }
	EmbeddingOutputInfo     struct{ HeaderOnly }
	ClusterOutputInfo       struct{ HeaderOnly }
)

// Unknown is the fallback for a discriminator outside the known set.
type Unknown struct {
	Header
	Raw string
}

func (u Unknown) Serialize() string { return u.Raw }

// IsUnknown reports whether info is the fallback variant.
func IsUnknown(info OutputInfo) bool {
	_, ok := info.(Unknown)
	return ok
}

// DecodeError reports an output_info node that does not match its variant.
type DecodeError struct {
	Discriminator string
	Err           error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q output info: %v", e.Discriminator, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Discriminator returns the tag that selects the variant for node.
func Discriminator(node gjson.Result) string {
	if ext := node.Get("type_ext"); ext.Type == gjson.String && ext.Str != "" {
		return ext.Str
	}
	return node.Get("type").String()
}

// Resolve reads an output_info node into its variant.
func Resolve(node gjson.Result) (OutputInfo, error) {
	disc := Discriminator(node)
	if !node.IsObject() {
		return nil, &DecodeError{Discriminator: disc, Err: &wire.FieldError{Path: "output_info", Want: "object"}}
	}
	h, err := parseHeader(node)
	if err != nil {
		return nil, &DecodeError{Discriminator: disc, Err: err}
	}

	switch disc {
	case "concept":
		info, err := parseConcept(h, node)
		return wrap(disc, info, err)
	case "color":
		c, err := parseConcepts(h, node)
		return wrap(disc, ColorOutputInfo{c}, err)
	case "detection", "detect-concept":
		c, err := parseConcepts(h, node)
		return wrap(disc, DetectionOutputInfo{c}, err)
	case "facedetect", "facedetect-identity":
		c, err := parseConcepts(h, node)
		return wrap(disc, FaceDetectionOutputInfo{c}, err)
	case "logo":
		c, err := parseConcepts(h, node)
		return wrap(disc, LogoOutputInfo{c}, err)
	case "regression":
		c, err := parseConcepts(h, node)
		return wrap(disc, RegressionOutputInfo{c}, err)
	case "facedetect-demographics":
		return DemographicsOutputInfo{HeaderOnly{h}}, nil
	case "facedetect-embed":
		return FaceEmbeddingOutputInfo{HeaderOnly{h}}, nil
	case "focus", "blur":
		return FocusOutputInfo{HeaderOnly{h}}, nil
	case "embed":
		return EmbeddingOutputInfo{HeaderOnly{h}}, nil
	case "cluster":
		return ClusterOutputInfo{HeaderOnly{h}}, nil
	default:
		return Unknown{Header: h, Raw: node.Raw}, nil
	}
}

func wrap(disc string, info OutputInfo, err error) (OutputInfo, error) {
	if err != nil {
		return nil, &DecodeError{Discriminator: disc, Err: err}
	}
	return info, nil
}

func parseHeader(node gjson.Result) (Header, error) {
	var (
		h   Header
		err error
	)
	if h.Kind, err = wire.OptString(node, "type"); err != nil {
		return Header{}, err
	}
	if h.KindExt, err = wire.OptString(node, "type_ext"); err != nil {
		return Header{}, err
	}
	if h.Msg, err = wire.OptString(node, "message"); err != nil {
		return Header{}, err
	}
	return h, nil
}

func parseConcepts(h Header, node gjson.Result) (ConceptsOutputInfo, error) {
	concepts, err := predictions.ParseConcepts(node, "data.concepts")
	if err != nil {
		return ConceptsOutputInfo{}, err
	}
	return ConceptsOutputInfo{Header: h, Concepts: concepts}, nil
}

func parseConcept(h Header, node gjson.Result) (ConceptOutputInfo, error) {
	var (
		c   = ConceptOutputInfo{Header: h}
		err error
	)
	if c.Concepts, err = predictions.ParseConcepts(node, "data.concepts"); err != nil {
		return ConceptOutputInfo{}, err
	}
	if c.MutuallyExclusive, err = wire.OptBool(node, "output_config.concepts_mutually_exclusive"); err != nil {
		return ConceptOutputInfo{}, err
	}
	if c.ClosedEnvironment, err = wire.OptBool(node, "output_config.closed_environment"); err != nil {
		return ConceptOutputInfo{}, err
	}
	if c.Language, err = wire.OptString(node, "output_config.language"); err != nil {
		return ConceptOutputInfo{}, err
	}
	return c, nil
}
