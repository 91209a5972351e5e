package predictions

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"

	"github.com/tidwall/gjson"
)

// Crop is a bounding box in relative coordinates (0..1).
type Crop struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// ParseCrop reads a region_info.bounding_box node.
func ParseCrop(node gjson.Result) (Crop, error) {
	var (
		c   Crop
		err error
	)
	if c.Top, err = wire.Float(node, "top_row"); err != nil {
		return Crop{}, err
	}
	if c.Left, err = wire.Float(node, "left_col"); err != nil {
		return Crop{}, err
	}
	if c.Bottom, err = wire.Float(node, "bottom_row"); err != nil {
		return Crop{}, err
	}
	if c.Right, err = wire.Float(node, "right_col"); err != nil {
		return Crop{}, err
	}
	return c, nil
}

// BoundingBox encodes the crop the way regions report it.
func (c Crop) BoundingBox() string {
	return wire.NewObject().
		Set("top_row", c.Top).
		Set("left_col", c.Left).
		Set("bottom_row", c.Bottom).
		Set("right_col", c.Right).
		String()
}

// Array encodes the crop the way inputs carry it: [top, left, bottom, right].
func (c Crop) Array() []float64 {
	return []float64{c.Top, c.Left, c.Bottom, c.Right}
}

// CropFromArray is the inverse of Array.
func CropFromArray(vals []float64) (Crop, bool) {
	if len(vals) != 4 {
		return Crop{}, false
	}
	return Crop{Top: vals[0], Left: vals[1], Bottom: vals[2], Right: vals[3]}, true
}

func parseRegionCrop(kind Type, node gjson.Result) (Crop, error) {
	box, err := wire.ObjectAt(node, "region_info.bounding_box")
	if err != nil {
		return Crop{}, decodeErr(kind, err)
	}
	c, err := ParseCrop(box)
	if err != nil {
		return Crop{}, decodeErr(kind, err)
	}
	return c, nil
}
