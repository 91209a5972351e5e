package predictions

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"

	"github.com/tidwall/gjson"
)

type Embedding struct {
	Vector        []float64
	NumDimensions int
}

func (Embedding) Type() Type  { return TypeEmbedding }
func (Embedding) prediction() {}

// Serialize leaves out a nil Vector; an empty one is written as [].
func (e Embedding) Serialize() string {
	o := wire.NewObject()
	if e.Vector != nil {
		o.Set("vector", e.Vector)
	}
	return o.Set("num_dimensions", e.NumDimensions).String()
}

func parseEmbedding(node gjson.Result) (Embedding, error) {
	items, err := wire.OptArray(node, "vector")
	if err != nil {
		return Embedding{}, decodeErr(TypeEmbedding, err)
	}
	var vector []float64
	if items != nil {
		vector = make([]float64, 0, len(items))
	}
	for _, item := range items {
		if item.Type != gjson.Number {
			return Embedding{}, decodeErr(TypeEmbedding, &wire.FieldError{Path: "vector", Want: "number array"})
		}
		vector = append(vector, item.Num)
	}
	dims, err := wire.OptInt(node, "num_dimensions")
	if err != nil {
		return Embedding{}, decodeErr(TypeEmbedding, err)
	}
	e := Embedding{Vector: vector, NumDimensions: len(vector)}
	if dims != nil {
		e.NumDimensions = *dims
	}
	return e, nil
}

// Cluster groups inputs the model considers visually similar.
type Cluster struct {
	ID    string
	Count int
	Score float64
}

func (Cluster) Type() Type  { return TypeCluster }
func (Cluster) prediction() {}

func (c Cluster) Serialize() string {
	return wire.NewObject().
		Set("id", c.ID).
		Set("count", c.Count).
		Set("score", c.Score).
		String()
}

func parseCluster(node gjson.Result) (Cluster, error) {
	id, err := wire.String(node, "id")
	if err != nil {
		return Cluster{}, decodeErr(TypeCluster, err)
	}
	count, err := wire.OptInt(node, "count")
	if err != nil {
		return Cluster{}, decodeErr(TypeCluster, err)
	}
	score, err := wire.OptFloat(node, "score")
	if err != nil {
		return Cluster{}, decodeErr(TypeCluster, err)
	}
	c := Cluster{ID: id}
	if count != nil {
		c.Count = *count
	}
	if score != nil {
		c.Score = *score
	}
	return c, nil
}
