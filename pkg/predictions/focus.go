package predictions

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Focus scores how sharp an in-focus region is. Density is the region score,
// Value the score of the whole image.
type Focus struct {
	Crop    Crop
	Density float64
	Value   float64
}

func (Focus) Type() Type  { return TypeFocus }
func (Focus) prediction() {}

func (f Focus) Serialize() string {
	return wire.NewObject().
		SetRaw("region_info.bounding_box", f.Crop.BoundingBox()).
		Set("data.focus.density", f.Density).
		Set("data.focus.value", f.Value).
		String()
}

// resolveFocus pairs every region with the image-level score at data.focus.value.
func resolveFocus(data gjson.Result) ([]Prediction, error) {
	imageValue, err := wire.OptFloat(data, "focus.value")
	if err != nil {
		return nil, decodeErr(TypeFocus, err)
	}
	regions, err := wire.OptArray(data, "regions")
	if err != nil {
		return nil, decodeErr(TypeFocus, err)
	}
	out := make([]Prediction, 0, len(regions))
	for i, region := range regions {
		f, err := parseFocus(region, imageValue)
		if err != nil {
			return nil, errors.Wrapf(err, "regions[%d]", i)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func parseFocus(node gjson.Result, imageValue *float64) (Focus, error) {
	crop, err := parseRegionCrop(TypeFocus, node)
	if err != nil {
		return Focus{}, err
	}
	density, err := wire.Float(node, "data.focus.density")
	if err != nil {
		return Focus{}, decodeErr(TypeFocus, err)
	}
	value, err := wire.OptFloat(node, "data.focus.value")
	if err != nil {
		return Focus{}, decodeErr(TypeFocus, err)
	}
	if value == nil {
		value = imageValue
	}
	if value == nil {
		return Focus{}, decodeErr(TypeFocus, &wire.FieldError{Path: "focus.value", Missing: true})
	}
	return Focus{Crop: crop, Density: density, Value: *value}, nil
}
