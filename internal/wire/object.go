package wire

import (
	"strings"

	"github.com/tidwall/sjson"
)

// Object builds a JSON object by adding only the fields that are set.
// The first sjson error sticks and is reported by Bytes.
type Object struct {
	raw string
	err error
}

func NewObject() *Object {
	return &Object{raw: "{}"}
}

func (o *Object) Set(path string, v any) *Object {
	if o.err != nil {
		return o
	}
	o.raw, o.err = sjson.Set(o.raw, path, v)
	return o
}

// SetRaw stores an already encoded JSON value at path.
func (o *Object) SetRaw(path, raw string) *Object {
	if o.err != nil {
		return o
	}
	o.raw, o.err = sjson.SetRaw(o.raw, path, raw)
	return o
}

// SetString stores v only when it is not blank.
func (o *Object) SetString(path, v string) *Object {
	if strings.TrimSpace(v) == "" {
		return o
	}
	return o.Set(path, v)
}

func (o *Object) SetFloat(path string, v *float64) *Object {
	if v == nil {
		return o
	}
	return o.Set(path, *v)
}

func (o *Object) SetInt(path string, v *int) *Object {
	if v == nil {
		return o
	}
	return o.Set(path, *v)
}

func (o *Object) SetBool(path string, v *bool) *Object {
	if v == nil {
		return o
	}
	return o.Set(path, *v)
}

// SetArray stores the encoded items as a JSON array. A nil slice is skipped,
// an empty non-nil slice becomes [].
func (o *Object) SetArray(path string, items []string) *Object {
	if items == nil {
		return o
	}
	return o.SetRaw(path, "["+strings.Join(items, ",")+"]")
}

func (o *Object) String() string {
	return o.raw
}

func (o *Object) Bytes() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}
	return []byte(o.raw), nil
}

func (o *Object) Err() error {
	return o.err
}
