package wire

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// FieldError reports a required field that is absent, or any field whose
// JSON type does not match what the reader expects.
type FieldError struct {
	Path    string
	Want    string
	Missing bool
}

func (e *FieldError) Error() string {
	if e.Missing {
		return fmt.Sprintf("field %q is missing", e.Path)
	}
	return fmt.Sprintf("field %q is not a %s", e.Path, e.Want)
}

func missing(path string) error {
	return &FieldError{Path: path, Missing: true}
}

func mistyped(path, want string) error {
	return &FieldError{Path: path, Want: want}
}

// Present treats JSON null the same as an absent key.
func Present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

func String(node gjson.Result, path string) (string, error) {
	v := node.Get(path)
	if !Present(v) {
		return "", missing(path)
	}
	if v.Type != gjson.String {
		return "", mistyped(path, "string")
	}
	return v.Str, nil
}

func Float(node gjson.Result, path string) (float64, error) {
	v := node.Get(path)
	if !Present(v) {
		return 0, missing(path)
	}
	if v.Type != gjson.Number {
		return 0, mistyped(path, "number")
	}
	return v.Num, nil
}

func Int(node gjson.Result, path string) (int, error) {
	v := node.Get(path)
	if !Present(v) {
		return 0, missing(path)
	}
	if v.Type != gjson.Number {
		return 0, mistyped(path, "number")
	}
	return int(v.Int()), nil
}

func Array(node gjson.Result, path string) ([]gjson.Result, error) {
	v := node.Get(path)
	if !Present(v) {
		return nil, missing(path)
	}
	if !v.IsArray() {
		return nil, mistyped(path, "array")
	}
	return v.Array(), nil
}

// ObjectAt returns the JSON object at path.
func ObjectAt(node gjson.Result, path string) (gjson.Result, error) {
	v := node.Get(path)
	if !Present(v) {
		return gjson.Result{}, missing(path)
	}
	if !v.IsObject() {
		return gjson.Result{}, mistyped(path, "object")
	}
	return v, nil
}

func OptString(node gjson.Result, path string) (string, error) {
	v := node.Get(path)
	if !Present(v) {
		return "", nil
	}
	if v.Type != gjson.String {
		return "", mistyped(path, "string")
	}
	return v.Str, nil
}

func OptFloat(node gjson.Result, path string) (*float64, error) {
	v := node.Get(path)
	if !Present(v) {
		return nil, nil
	}
	if v.Type != gjson.Number {
		return nil, mistyped(path, "number")
	}
	f := v.Num
	return &f, nil
}

func OptInt(node gjson.Result, path string) (*int, error) {
	v := node.Get(path)
	if !Present(v) {
		return nil, nil
	}
	if v.Type != gjson.Number {
		return nil, mistyped(path, "number")
	}
	n := int(v.Int())
	return &n, nil
}

func OptBool(node gjson.Result, path string) (*bool, error) {
	v := node.Get(path)
	if !Present(v) {
		return nil, nil
	}
	if v.Type != gjson.True && v.Type != gjson.False {
		return nil, mistyped(path, "boolean")
	}
	b := v.Bool()
	return &b, nil
}

// OptArray returns nil for an absent array and an empty, non-nil slice for
// [], so callers can keep the two apart.
func OptArray(node gjson.Result, path string) ([]gjson.Result, error) {
	v := node.Get(path)
	if !Present(v) {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, mistyped(path, "array")
	}
	items := v.Array()
	if items == nil {
		items = []gjson.Result{}
	}
	return items, nil
}

// OptTime parses an RFC 3339 timestamp. Absent yields the zero time.
func OptTime(node gjson.Result, path string) (time.Time, error) {
	s, err := OptString(node, path)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, mistyped(path, "RFC 3339 timestamp")
	}
	return t, nil
}

// FormatTime is the inverse of OptTime.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
