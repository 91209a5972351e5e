package requests

import (
	"fmt"

	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

type GetConcept struct {
	ID string
}

func NewGetConcept(id string) GetConcept { return GetConcept{ID: id} }

func (GetConcept) Method() string        { return methodGet }
func (r GetConcept) URL() string         { return "/v2/concepts/" + seg(r.ID) }
func (GetConcept) Body() ([]byte, error) { return nil, nil }

func (GetConcept) Unmarshal(payload gjson.Result) (predictions.Concept, error) {
	return parseOne(payload, "concept", predictions.ParseConcept)
}

type GetConcepts struct {
	Page Page
}

func (GetConcepts) Method() string        { return methodGet }
func (r GetConcepts) URL() string         { return r.Page.url("/v2/concepts") }
func (GetConcepts) Body() ([]byte, error) { return nil, nil }

func (GetConcepts) Unmarshal(payload gjson.Result) ([]predictions.Concept, error) {
	return parseList(payload, "concepts", predictions.ParseConcept)
}

type AddConcepts struct {
	Concepts []predictions.Concept
}

func NewAddConcepts(concepts ...predictions.Concept) AddConcepts {
	return AddConcepts{Concepts: concepts}
}

func (AddConcepts) Method() string { return methodPost }
func (AddConcepts) URL() string    { return "/v2/concepts" }

func (r AddConcepts) Body() ([]byte, error) {
	return wire.NewObject().
		SetArray("concepts", conceptArray(r.Concepts)).
		Bytes()
}

func (AddConcepts) Unmarshal(payload gjson.Result) ([]predictions.Concept, error) {
	return parseList(payload, "concepts", predictions.ParseConcept)
}

// ModifyAction tells the service how to apply ModifyConcepts.
type ModifyAction string

const (
	ModifyMerge     ModifyAction = "merge"
	ModifyOverwrite ModifyAction = "overwrite"
	ModifyRemove    ModifyAction = "remove"
)

func (a ModifyAction) MarshalText() ([]byte, error) { return []byte(string(a)), nil }

func ParseModifyAction(s string) (ModifyAction, error) {
	switch a := ModifyAction(s); a {
	case ModifyMerge, ModifyOverwrite, ModifyRemove:
		return a, nil
	default:
		return "", fmt.Errorf("unknown modify action %q", s)
	}
}

// ModifyConcepts renames concepts. Only id and name of each concept are sent.
type ModifyConcepts struct {
	Action   ModifyAction
	Concepts []predictions.Concept
}

func NewModifyConcepts(action ModifyAction, concepts ...predictions.Concept) ModifyConcepts {
	return ModifyConcepts{Action: action, Concepts: concepts}
}

func (ModifyConcepts) Method() string { return methodPatch }
func (ModifyConcepts) URL() string    { return "/v2/concepts" }

func (r ModifyConcepts) Body() ([]byte, error) {
	action := r.Action
	if action == "" {
		action = ModifyOverwrite
	}
	concepts := lo.Map(r.Concepts, func(c predictions.Concept, _ int) predictions.Concept {
		return predictions.Concept{ID: c.ID, Name: c.Name}
	})
	return wire.NewObject().
		Set("action", string(action)).
		SetArray("concepts", conceptArray(concepts)).
		Bytes()
}

func (ModifyConcepts) Unmarshal(payload gjson.Result) ([]predictions.Concept, error) {
	return parseList(payload, "concepts", predictions.ParseConcept)
}

// SearchConcepts matches concept names; "*" wildcards are honoured by the service.
type SearchConcepts struct {
	Name     string
	Language string
}

func NewSearchConcepts(name string) SearchConcepts { return SearchConcepts{Name: name} }

func (r SearchConcepts) InLanguage(lang string) SearchConcepts {
	r.Language = lang
	return r
}

func (SearchConcepts) Method() string { return methodPost }
func (SearchConcepts) URL() string    { return "/v2/concepts/searches" }

func (r SearchConcepts) Body() ([]byte, error) {
	return wire.NewObject().
		Set("concept_query.name", r.Name).
		SetString("concept_query.language", r.Language).
		Bytes()
}

func (SearchConcepts) Unmarshal(payload gjson.Result) ([]predictions.Concept, error) {
	return parseList(payload, "concepts", predictions.ParseConcept)
}

// conceptArray always yields a non-nil slice so list bodies carry [].
func conceptArray(cs []predictions.Concept) []string {
	out := predictions.SerializeConcepts(cs)
	if out == nil {
		return []string{}
	}
	return out
}
