package domain

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// InputKind tells whether an input is a still image or a video.
type InputKind string

const (
	InputImage InputKind = "image"
	InputVideo InputKind = "video"
)

var (
	_ encoding.BinaryMarshaler = InputKind("")
	_ encoding.TextMarshaler   = InputKind("")
)

func (k InputKind) MarshalBinary() ([]byte, error) { return []byte(string(k)), nil }
func (k InputKind) MarshalText() ([]byte, error)   { return []byte(string(k)), nil }

func ParseInputKind(s string) (InputKind, error) {
	switch k := InputKind(strings.ToLower(strings.TrimSpace(s))); k {
	case InputImage, InputVideo:
		return k, nil
	default:
		return "", fmt.Errorf("unknown input kind %q", s)
	}
}

type GeoPoint struct {
	Longitude float64
	Latitude  float64
}

// Input is media sent for prediction or stored in the application. Exactly one
// of URL and Bytes is set.
type Input struct {
	ID                string
	Kind              InputKind
	URL               string
	Bytes             []byte
	Crop              *predictions.Crop
	AllowDuplicateURL bool
	// Concepts carry value 1 when positive and 0 when negative.
	Concepts []predictions.Concept
	// Metadata is a raw JSON object, empty when unset.
	Metadata  string
	Geo       *GeoPoint
	CreatedAt time.Time
	Status    *InputStatus
}

type InputOption func(*Input)

func NewURLImage(url string, opts ...InputOption) Input {
	return newInput(InputImage, url, nil, opts)
}

func NewFileImage(data []byte, opts ...InputOption) Input {
	return newInput(InputImage, "", data, opts)
}

func NewURLVideo(url string, opts ...InputOption) Input {
	return newInput(InputVideo, url, nil, opts)
}

func NewFileVideo(data []byte, opts ...InputOption) Input {
	return newInput(InputVideo, "", data, opts)
}

func newInput(kind InputKind, url string, data []byte, opts []InputOption) Input {
	in := Input{Kind: kind, URL: url, Bytes: data}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

func WithInputID(id string) InputOption {
	return func(in *Input) { in.ID = id }
}

func WithCrop(c predictions.Crop) InputOption {
	return func(in *Input) { in.Crop = &c }
}

func WithAllowDuplicateURL(allow bool) InputOption {
	return func(in *Input) { in.AllowDuplicateURL = allow }
}

func WithPositiveConcepts(ids ...string) InputOption {
	return withConcepts(1, ids)
}

func WithNegativeConcepts(ids ...string) InputOption {
	return withConcepts(0, ids)
}

func withConcepts(value float64, ids []string) InputOption {
	return func(in *Input) {
		in.Concepts = append(in.Concepts, lo.Map(ids, func(id string, _ int) predictions.Concept {
			return predictions.NewConcept(id).WithValue(value)
		})...)
	}
}

// WithMetadata attaches a JSON object. Anything that is not an object is ignored.
func WithMetadata(raw string) InputOption {
	return func(in *Input) {
		if gjson.Valid(raw) && gjson.Parse(raw).IsObject() {
			in.Metadata = raw
		}
	}
}

func WithGeo(longitude, latitude float64) InputOption {
	return func(in *Input) { in.Geo = &GeoPoint{Longitude: longitude, Latitude: latitude} }
}

// PositiveConcepts returns the concepts attached with a non-zero value.
func (in Input) PositiveConcepts() []predictions.Concept {
	return lo.Filter(in.Concepts, func(c predictions.Concept, _ int) bool {
		return !c.HasValue || c.Value != 0
	})
}

func (in Input) NegativeConcepts() []predictions.Concept {
	return lo.Filter(in.Concepts, func(c predictions.Concept, _ int) bool {
		return c.HasValue && c.Value == 0
	})
}

func (in Input) Serialize() string {
	media := "data." + string(in.Kind)
	if in.Kind == "" {
		media = "data." + string(InputImage)
	}
	o := wire.NewObject().SetString("id", in.ID)
	if len(in.Bytes) > 0 {
		o.Set(media+".base64", base64.StdEncoding.EncodeToString(in.Bytes))
	} else {
		o.SetString(media+".url", in.URL)
	}
	if in.Crop != nil {
		o.Set(media+".crop", in.Crop.Array())
	}
	if in.AllowDuplicateURL {
		o.Set(media+".allow_duplicate_url", true)
	}
	o.SetArray("data.concepts", predictions.SerializeConcepts(in.Concepts))
	if in.Metadata != "" {
		o.SetRaw("data.metadata", in.Metadata)
	}
	if in.Geo != nil {
		o.Set("data.geo.geo_point.longitude", in.Geo.Longitude).
			Set("data.geo.geo_point.latitude", in.Geo.Latitude)
	}
	if !in.CreatedAt.IsZero() {
		o.Set("created_at", wire.FormatTime(in.CreatedAt))
	}
	if in.Status != nil {
		o.SetRaw("status", in.Status.Serialize())
	}
	return o.String()
}

func ParseInput(node gjson.Result) (Input, error) {
	if !node.IsObject() {
		return Input{}, &wire.FieldError{Path: "input", Want: "object"}
	}
	var (
		in  Input
		err error
	)
	if in.ID, err = wire.OptString(node, "id"); err != nil {
		return Input{}, err
	}
	switch {
	case wire.Present(node.Get("data.video")):
		in.Kind = InputVideo
	default:
		in.Kind = InputImage
	}
	media := "data." + string(in.Kind)
	if in.URL, err = wire.OptString(node, media+".url"); err != nil {
		return Input{}, err
	}
	encoded, err := wire.OptString(node, media+".base64")
	if err != nil {
		return Input{}, err
	}
	if encoded != "" {
		if in.Bytes, err = base64.StdEncoding.DecodeString(encoded); err != nil {
			return Input{}, errors.Wrapf(err, "field %q", media+".base64")
		}
	}
	if in.Crop, err = parseInputCrop(node, media+".crop"); err != nil {
		return Input{}, err
	}
	allow, err := wire.OptBool(node, media+".allow_duplicate_url")
	if err != nil {
		return Input{}, err
	}
	in.AllowDuplicateURL = lo.FromPtr(allow)
	if in.Concepts, err = predictions.ParseConcepts(node, "data.concepts"); err != nil {
		return Input{}, err
	}
	if meta := node.Get("data.metadata"); wire.Present(meta) {
		if !meta.IsObject() {
			return Input{}, &wire.FieldError{Path: "data.metadata", Want: "object"}
		}
		in.Metadata = meta.Raw
	}
	if point := node.Get("data.geo.geo_point"); wire.Present(point) {
		var g GeoPoint
		if g.Longitude, err = wire.Float(point, "longitude"); err != nil {
			return Input{}, err
		}
		if g.Latitude, err = wire.Float(point, "latitude"); err != nil {
			return Input{}, err
		}
		in.Geo = &g
	}
	if in.CreatedAt, err = wire.OptTime(node, "created_at"); err != nil {
		return Input{}, err
	}
	if status := node.Get("status"); wire.Present(status) {
		s, err := ParseInputStatus(status)
		if err != nil {
			return Input{}, errors.Wrap(err, "input status")
		}
		in.Status = &s
	}
	return in, nil
}

func parseInputCrop(node gjson.Result, path string) (*predictions.Crop, error) {
	items, err := wire.OptArray(node, path)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	vals := make([]float64, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.Number {
			return nil, &wire.FieldError{Path: path, Want: "array of numbers"}
		}
		vals = append(vals, item.Num)
	}
	c, ok := predictions.CropFromArray(vals)
	if !ok {
		return nil, &wire.FieldError{Path: path, Want: "array of 4 numbers"}
	}
	return &c, nil
}

// InputsStatus counts the inputs of an application by processing state.
type InputsStatus struct {
	Processed  int
	ToProcess  int
	Errors     int
	Processing int
}

func (s InputsStatus) Total() int {
	return s.Processed + s.ToProcess + s.Errors + s.Processing
}

func (s InputsStatus) Serialize() string {
	return wire.NewObject().
		Set("processed", s.Processed).
		Set("to_process", s.ToProcess).
		Set("errors", s.Errors).
		Set("processing", s.Processing).
		String()
}

// ParseInputsStatus reads a counts node. Missing counters are zero.
func ParseInputsStatus(node gjson.Result) (InputsStatus, error) {
	var s InputsStatus
	for path, dst := range map[string]*int{
		"processed":  &s.Processed,
		"to_process": &s.ToProcess,
		"errors":     &s.Errors,
		"processing": &s.Processing,
	} {
		n, err := wire.OptInt(node, path)
		if err != nil {
			return InputsStatus{}, err
		}
		*dst = lo.FromPtr(n)
	}
	return s, nil
}
