package predictions

import (
	"time"

	"github.com/osvaldoandrade/visiongo/internal/wire"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// Concept is a tag predicted for an input, or a label attached to one.
// HasValue is false when the service did not score the concept, which keeps
// an unscored concept apart from a score of zero.
type Concept struct {
	ID        string
	Name      string
	Value     float64
	HasValue  bool
	AppID     string
	Language  string
	CreatedAt time.Time
}

func NewConcept(id string) Concept {
	return Concept{ID: id}
}

// WithValue returns c scored with v.
func (c Concept) WithValue(v float64) Concept {
	c.Value, c.HasValue = v, true
	return c
}

func (Concept) Type() Type  { return TypeConcept }
func (Concept) prediction() {}

func (c Concept) Serialize() string {
	o := wire.NewObject().
		Set("id", c.ID).
		SetString("name", c.Name)
	if c.HasValue {
		o.Set("value", c.Value)
	}
	o.SetString("app_id", c.AppID).
		SetString("language", c.Language)
	if !c.CreatedAt.IsZero() {
		o.Set("created_at", wire.FormatTime(c.CreatedAt))
	}
	return o.String()
}

func ParseConcept(node gjson.Result) (Concept, error) {
	var (
		c   Concept
		err error
	)
	if c.ID, err = wire.String(node, "id"); err != nil {
		return Concept{}, decodeErr(TypeConcept, err)
	}
	if c.Name, err = wire.OptString(node, "name"); err != nil {
		return Concept{}, decodeErr(TypeConcept, err)
	}
	value, err := wire.OptFloat(node, "value")
	if err != nil {
		return Concept{}, decodeErr(TypeConcept, err)
	}
	if value != nil {
		c = c.WithValue(*value)
	}
	if c.AppID, err = wire.OptString(node, "app_id"); err != nil {
		return Concept{}, decodeErr(TypeConcept, err)
	}
	if c.Language, err = wire.OptString(node, "language"); err != nil {
		return Concept{}, decodeErr(TypeConcept, err)
	}
	if c.CreatedAt, err = wire.OptTime(node, "created_at"); err != nil {
		return Concept{}, decodeErr(TypeConcept, err)
	}
	return c, nil
}

// ParseConcepts reads an optional concept array at path.
func ParseConcepts(node gjson.Result, path string) ([]Concept, error) {
	items, err := wire.OptArray(node, path)
	if err != nil {
		return nil, decodeErr(TypeConcept, err)
	}
	if items == nil {
		return nil, nil
	}
	out := make([]Concept, 0, len(items))
	for _, item := range items {
		c, err := ParseConcept(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// SerializeConcepts encodes each concept, keeping nil as nil.
func SerializeConcepts(cs []Concept) []string {
	if cs == nil {
		return nil
	}
	return lo.Map(cs, func(c Concept, _ int) string { return c.Serialize() })
}
