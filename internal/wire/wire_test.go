package wire

import (
	"errors"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestObjectSkipsAbsentFields(t *testing.T) {
	var (
		lang    string
		limit   *int
		ratio   *float64
		closed  *bool
		concept []string
	)
	got := NewObject().
		Set("inputs", []string{"a"}).
		SetString("config.language", lang).
		SetInt("config.max", limit).
		SetFloat("config.min", ratio).
		SetBool("config.closed", closed).
		SetArray("config.select", concept).
		String()

	if got != `{"inputs":["a"]}` {
		t.Fatalf("String() = %s, want only inputs", got)
	}
}

func TestObjectNestsOnlyWhenSet(t *testing.T) {
	n := 5
	got := NewObject().SetInt("model.output_info.output_config.max_concepts", &n).String()
	if v := gjson.Get(got, "model.output_info.output_config.max_concepts").Int(); v != 5 {
		t.Fatalf("max_concepts = %d, want 5 in %s", v, got)
	}
	if gjson.Get(got, "model.output_info.output_config.language").Exists() {
		t.Fatalf("unexpected language in %s", got)
	}
}

func TestObjectEmptyArray(t *testing.T) {
	got := NewObject().SetArray("ids", []string{}).String()
	if got != `{"ids":[]}` {
		t.Fatalf("String() = %s, want empty array", got)
	}
}

func TestRequiredReaders(t *testing.T) {
	node := gjson.Parse(`{"id":"x","n":3,"f":0.5,"arr":[1],"nil":null,"obj":{}}`)

	if v, err := String(node, "id"); err != nil || v != "x" {
		t.Fatalf("String(id) = %q, %v", v, err)
	}
	if v, err := Int(node, "n"); err != nil || v != 3 {
		t.Fatalf("Int(n) = %d, %v", v, err)
	}
	if v, err := Float(node, "f"); err != nil || v != 0.5 {
		t.Fatalf("Float(f) = %v, %v", v, err)
	}
	if v, err := Array(node, "arr"); err != nil || len(v) != 1 {
		t.Fatalf("Array(arr) = %v, %v", v, err)
	}
	if _, err := ObjectAt(node, "obj"); err != nil {
		t.Fatalf("ObjectAt(obj): %v", err)
	}

	tests := []struct {
		name        string
		read        func() error
		wantMissing bool
	}{
		{"absent string", func() error { _, err := String(node, "name"); return err }, true},
		{"null counts as absent", func() error { _, err := String(node, "nil"); return err }, true},
		{"number read as string", func() error { _, err := String(node, "n"); return err }, false},
		{"string read as number", func() error { _, err := Float(node, "id"); return err }, false},
		{"object read as array", func() error { _, err := Array(node, "obj"); return err }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *FieldError", err)
			}
			if fe.Missing != tt.wantMissing {
				t.Errorf("Missing = %v, want %v", fe.Missing, tt.wantMissing)
			}
		})
	}
}

func TestOptionalReaders(t *testing.T) {
	node := gjson.Parse(`{"v":1.25,"b":false,"s":"hi","empty":[],"ts":"2016-10-25T19:30:38.541073Z"}`)

	if v, err := OptFloat(node, "absent"); err != nil || v != nil {
		t.Fatalf("OptFloat(absent) = %v, %v", v, err)
	}
	if v, err := OptFloat(node, "v"); err != nil || v == nil || *v != 1.25 {
		t.Fatalf("OptFloat(v) = %v, %v", v, err)
	}
	if v, err := OptBool(node, "b"); err != nil || v == nil || *v {
		t.Fatalf("OptBool(b) = %v, %v", v, err)
	}
	if _, err := OptBool(node, "s"); err == nil {
		t.Fatal("OptBool(s) should reject a string")
	}
	if v, err := OptArray(node, "empty"); err != nil || v == nil || len(v) != 0 {
		t.Fatalf("OptArray(empty) = %#v, %v; want empty non-nil", v, err)
	}
	if v, err := OptArray(node, "absent"); err != nil || v != nil {
		t.Fatalf("OptArray(absent) = %#v, %v; want nil", v, err)
	}

	ts, err := OptTime(node, "ts")
	if err != nil {
		t.Fatalf("OptTime: %v", err)
	}
	want := time.Date(2016, 10, 25, 19, 30, 38, 541073000, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("OptTime = %v, want %v", ts, want)
	}
	if FormatTime(ts) != "2016-10-25T19:30:38.541073Z" {
		t.Errorf("FormatTime = %s", FormatTime(ts))
	}
}
