package fakeapi

import (
	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

func conceptsField(o *wire.Object, key string, cs []predictions.Concept) {
	items := predictions.SerializeConcepts(cs)
	if items == nil {
		items = []string{}
	}
	o.SetArray(key, items)
}

func (s *Server) getConcept(c *gin.Context) {
	s.store.mu.Lock()
	concept, ok := s.store.concepts[c.Param("id")]
	s.store.mu.Unlock()
	if !ok {
		notFound(c, "Concept")
		return
	}
	reply(c, func(o *wire.Object) { o.SetRaw("concept", concept.Serialize()) })
}

func (s *Server) listConcepts(c *gin.Context) {
	pageNum, perPage := pageParams(c)
	s.store.mu.Lock()
	ids := page(s.store.conceptOrder, pageNum, perPage)
	out := lo.Map(ids, func(id string, _ int) predictions.Concept { return s.store.concepts[id] })
	s.store.mu.Unlock()
	reply(c, func(o *wire.Object) { conceptsField(o, "concepts", out) })
}

func (s *Server) parseConcepts(c *gin.Context, body gjson.Result) ([]predictions.Concept, bool) {
	concepts, err := predictions.ParseConcepts(body, "concepts")
	if err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if len(concepts) == 0 {
		badRequest(c, "concepts must not be empty")
		return nil, false
	}
	return concepts, true
}

func (s *Server) addConcepts(c *gin.Context) {
	body, ok := jsonBody(c)
	if !ok {
		return
	}
	concepts, ok := s.parseConcepts(c, body)
	if !ok {
		return
	}

	s.store.mu.Lock()
	now := s.store.now().UTC()
	for i := range concepts {
		concept := &concepts[i]
		concept.Value, concept.HasValue = 0, false
		concept.AppID = appID
		concept.CreatedAt = now
		if concept.Name == "" {
			concept.Name = concept.ID
		}
		if concept.Language == "" {
			concept.Language = "en"
		}
		if _, exists := s.store.concepts[concept.ID]; !exists {
			s.store.conceptOrder = append(s.store.conceptOrder, concept.ID)
		}
		s.store.concepts[concept.ID] = *concept
	}
	s.store.mu.Unlock()

	reply(c, func(o *wire.Object) { conceptsField(o, "concepts", concepts) })
}

// modifyConcepts renames existing concepts. Remove clears names back to ids.
func (s *Server) modifyConcepts(c *gin.Context) {
	body, ok := jsonBody(c)
	if !ok {
		return
	}
	action := body.Get("action").String()
	if !lo.Contains([]string{"merge", "overwrite", "remove"}, action) {
		badRequest(c, "unknown action "+action)
		return
	}
	changes, ok := s.parseConcepts(c, body)
	if !ok {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, change := range changes {
		if _, exists := s.store.concepts[change.ID]; !exists {
			notFound(c, "Concept "+change.ID)
			return
		}
	}
	out := make([]predictions.Concept, 0, len(changes))
	for _, change := range changes {
		concept := s.store.concepts[change.ID]
		switch action {
		case "remove":
			concept.Name = concept.ID
		case "merge":
			if change.Name != "" {
				concept.Name = change.Name
			}
		default:
			concept.Name = lo.Ternary(change.Name != "", change.Name, concept.ID)
		}
		s.store.concepts[change.ID] = concept
		out = append(out, concept)
	}
	reply(c, func(o *wire.Object) { conceptsField(o, "concepts", out) })
}

func (s *Server) searchConcepts(c *gin.Context) {
	body, ok := jsonBody(c)
	if !ok {
		return
	}
	name := body.Get("concept_query.name").String()
	language := body.Get("concept_query.language").String()

	s.store.mu.Lock()
	var out []predictions.Concept
	for _, id := range s.store.conceptOrder {
		concept := s.store.concepts[id]
		if !matchName(name, concept.Name) {
			continue
		}
		if language != "" {
			concept.Language = language
		}
		out = append(out, concept)
	}
	s.store.mu.Unlock()

	reply(c, func(o *wire.Object) { conceptsField(o, "concepts", out) })
}
