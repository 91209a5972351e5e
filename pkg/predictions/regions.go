package predictions

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"

	"github.com/tidwall/gjson"
)

// Region is a detected area of an image together with the concepts found in it.
type Region struct {
	ID       string
	Crop     Crop
	Concepts []Concept
}

func (Region) Type() Type  { return TypeRegion }
func (Region) prediction() {}

func (r Region) Serialize() string {
	return wire.NewObject().
		SetString("id", r.ID).
		SetRaw("region_info.bounding_box", r.Crop.BoundingBox()).
		SetArray("data.concepts", SerializeConcepts(r.Concepts)).
		String()
}

func parseRegion(node gjson.Result) (Region, error) {
	id, err := wire.OptString(node, "id")
	if err != nil {
		return Region{}, decodeErr(TypeRegion, err)
	}
	crop, err := parseRegionCrop(TypeRegion, node)
	if err != nil {
		return Region{}, err
	}
	concepts, err := ParseConcepts(node, "data.concepts")
	if err != nil {
		return Region{}, err
	}
	return Region{ID: id, Crop: crop, Concepts: concepts}, nil
}

// Logo is a recognised brand mark. Unlike Region, its concept list is required.
type Logo struct {
	Crop     Crop
	Concepts []Concept
}

func (Logo) Type() Type  { return TypeLogo }
func (Logo) prediction() {}

func (l Logo) Serialize() string {
	concepts := SerializeConcepts(l.Concepts)
	if concepts == nil {
		concepts = []string{}
	}
	return wire.NewObject().
		SetRaw("region_info.bounding_box", l.Crop.BoundingBox()).
		SetArray("data.concepts", concepts).
		String()
}

func parseLogo(node gjson.Result) (Logo, error) {
	if _, err := wire.Array(node, "data.concepts"); err != nil {
		return Logo{}, decodeErr(TypeLogo, err)
	}
	concepts, err := ParseConcepts(node, "data.concepts")
	if err != nil {
		return Logo{}, err
	}
	crop, err := parseRegionCrop(TypeLogo, node)
	if err != nil {
		return Logo{}, err
	}
	return Logo{Crop: crop, Concepts: concepts}, nil
}

// FaceDetection is a detected face. Identity holds the celebrity concepts
// when the model recognises faces, and is nil otherwise.
type FaceDetection struct {
	ID       string
	Crop     Crop
	Identity []Concept
}

func (FaceDetection) Type() Type  { return TypeFaceDetection }
func (FaceDetection) prediction() {}

func (f FaceDetection) Serialize() string {
	return wire.NewObject().
		SetString("id", f.ID).
		SetRaw("region_info.bounding_box", f.Crop.BoundingBox()).
		SetArray("data.face.identity.concepts", SerializeConcepts(f.Identity)).
		String()
}

func parseFaceDetection(node gjson.Result) (FaceDetection, error) {
	id, err := wire.OptString(node, "id")
	if err != nil {
		return FaceDetection{}, decodeErr(TypeFaceDetection, err)
	}
	crop, err := parseRegionCrop(TypeFaceDetection, node)
	if err != nil {
		return FaceDetection{}, err
	}
	identity, err := ParseConcepts(node, "data.face.identity.concepts")
	if err != nil {
		return FaceDetection{}, err
	}
	return FaceDetection{ID: id, Crop: crop, Identity: identity}, nil
}

// Demographics is a face annotated with apparent age, gender and cultural
// appearance concepts.
type Demographics struct {
	ID                      string
	Crop                    Crop
	AgeAppearance           []Concept
	GenderAppearance        []Concept
	MulticulturalAppearance []Concept
}

func (Demographics) Type() Type  { return TypeDemographics }
func (Demographics) prediction() {}

func (d Demographics) Serialize() string {
	return wire.NewObject().
		SetString("id", d.ID).
		SetRaw("region_info.bounding_box", d.Crop.BoundingBox()).
		SetArray("data.face.age_appearance.concepts", SerializeConcepts(d.AgeAppearance)).
		SetArray("data.face.gender_appearance.concepts", SerializeConcepts(d.GenderAppearance)).
		SetArray("data.face.multicultural_appearance.concepts", SerializeConcepts(d.MulticulturalAppearance)).
		String()
}

func parseDemographics(node gjson.Result) (Demographics, error) {
	var (
		d   Demographics
		err error
	)
	if d.ID, err = wire.OptString(node, "id"); err != nil {
		return Demographics{}, decodeErr(TypeDemographics, err)
	}
	if d.Crop, err = parseRegionCrop(TypeDemographics, node); err != nil {
		return Demographics{}, err
	}
	if d.AgeAppearance, err = ParseConcepts(node, "data.face.age_appearance.concepts"); err != nil {
		return Demographics{}, err
	}
	if d.GenderAppearance, err = ParseConcepts(node, "data.face.gender_appearance.concepts"); err != nil {
		return Demographics{}, err
	}
	if d.MulticulturalAppearance, err = ParseConcepts(node, "data.face.multicultural_appearance.concepts"); err != nil {
		return Demographics{}, err
	}
	return d, nil
}

// FaceEmbedding is a detected face with its embedding vectors.
type FaceEmbedding struct {
	Crop       Crop
	Embeddings []Embedding
}

func (FaceEmbedding) Type() Type  { return TypeFaceEmbedding }
func (FaceEmbedding) prediction() {}

func (f FaceEmbedding) Serialize() string {
	var embeddings []string
	if f.Embeddings != nil {
		embeddings = make([]string, 0, len(f.Embeddings))
	}
	for _, e := range f.Embeddings {
		embeddings = append(embeddings, e.Serialize())
	}
	return wire.NewObject().
		SetRaw("region_info.bounding_box", f.Crop.BoundingBox()).
		SetArray("data.embeddings", embeddings).
		String()
}

func parseFaceEmbedding(node gjson.Result) (FaceEmbedding, error) {
	crop, err := parseRegionCrop(TypeFaceEmbedding, node)
	if err != nil {
		return FaceEmbedding{}, err
	}
	items, err := wire.OptArray(node, "data.embeddings")
	if err != nil {
		return FaceEmbedding{}, decodeErr(TypeFaceEmbedding, err)
	}
	var embeddings []Embedding
	if items != nil {
		embeddings = make([]Embedding, 0, len(items))
	}
	for _, item := range items {
		e, err := parseEmbedding(item)
		if err != nil {
			return FaceEmbedding{}, err
		}
		embeddings = append(embeddings, e)
	}
	return FaceEmbedding{Crop: crop, Embeddings: embeddings}, nil
}
