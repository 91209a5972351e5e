package predictions

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"

	"github.com/tidwall/gjson"
)

// Frame holds the concepts predicted for one sampled video frame. Time is the
// frame offset in milliseconds.
type Frame struct {
	Index    int
	Time     int
	Concepts []Concept
}

func (Frame) Type() Type  { return TypeFrame }
func (Frame) prediction() {}

func (f Frame) Serialize() string {
	return wire.NewObject().
		Set("frame_info.index", f.Index).
		Set("frame_info.time", f.Time).
		SetArray("data.concepts", SerializeConcepts(f.Concepts)).
		String()
}

func parseFrame(node gjson.Result) (Frame, error) {
	var (
		f   Frame
		err error
	)
	if f.Index, err = wire.Int(node, "frame_info.index"); err != nil {
		return Frame{}, decodeErr(TypeFrame, err)
	}
	if f.Time, err = wire.Int(node, "frame_info.time"); err != nil {
		return Frame{}, decodeErr(TypeFrame, err)
	}
	if f.Concepts, err = ParseConcepts(node, "data.concepts"); err != nil {
		return Frame{}, err
	}
	return f, nil
}
