package predictions

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"

	"github.com/tidwall/gjson"
)

// Color is a dominant color of an image with its share of the pixels.
// Hex and W3CName are the nearest named W3C color.
type Color struct {
	RawHex  string
	Hex     string
	W3CName string
	Value   float64
}

func (Color) Type() Type  { return TypeColor }
func (Color) prediction() {}

func (c Color) Serialize() string {
	return wire.NewObject().
		Set("raw_hex", c.RawHex).
		SetString("w3c.hex", c.Hex).
		SetString("w3c.name", c.W3CName).
		Set("value", c.Value).
		String()
}

func parseColor(node gjson.Result) (Color, error) {
	var (
		c   Color
		err error
	)
	if c.RawHex, err = wire.String(node, "raw_hex"); err != nil {
		return Color{}, decodeErr(TypeColor, err)
	}
	if c.Value, err = wire.Float(node, "value"); err != nil {
		return Color{}, decodeErr(TypeColor, err)
	}
	if c.Hex, err = wire.OptString(node, "w3c.hex"); err != nil {
		return Color{}, decodeErr(TypeColor, err)
	}
	if c.W3CName, err = wire.OptString(node, "w3c.name"); err != nil {
		return Color{}, decodeErr(TypeColor, err)
	}
	return c, nil
}
