package fakeapi

import (
	"net/http"

	"github.com/osvaldoandrade/visiongo/internal/middleware"
	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/outputinfo"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func modelsField(o *wire.Object, ms []domain.Model) {
	o.SetArray("models", lo.Map(ms, func(m domain.Model, _ int) string { return m.Serialize() }))
}

// lookupModel answers 404 and reports nil when id is unknown. Callers hold the lock.
func (s *Server) lookupModel(c *gin.Context, id string) *model {
	m, ok := s.store.models[id]
	if !ok {
		notFound(c, "Model "+id)
		return nil
	}
	return m
}

func (s *Server) getModel(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	m := s.lookupModel(c, c.Param("id"))
	if m == nil {
		return
	}
	view, ok := m.view(c.Param("vid"))
	if !ok {
		notFound(c, "Model version "+c.Param("vid"))
		return
	}
	reply(c, func(o *wire.Object) { o.SetRaw("model", view.Serialize()) })
}

// listModels returns models without advancing any training.
func (s *Server) listModels(c *gin.Context) {
	pageNum, perPage := pageParams(c)
	s.store.mu.Lock()
	out := lo.Map(page(s.store.modelOrder, pageNum, perPage), func(id string, _ int) domain.Model {
		return s.store.models[id].m
	})
	s.store.mu.Unlock()
	reply(c, func(o *wire.Object) { modelsField(o, out) })
}

func (s *Server) searchModels(c *gin.Context) {
	body, ok := jsonBody(c)
	if !ok {
		return
	}
	name := body.Get("model_query.name").String()
	kind := body.Get("model_query.type").String()

	s.store.mu.Lock()
	var out []domain.Model
	for _, id := range s.store.modelOrder {
		m := s.store.models[id].m
		if name != "" && !matchName(name, m.Name) {
			continue
		}
		if kind != "" && (m.OutputInfo == nil || (m.OutputInfo.TypeExt() != kind && m.OutputInfo.Type() != kind)) {
			continue
		}
		out = append(out, m)
	}
	s.store.mu.Unlock()
	reply(c, func(o *wire.Object) { modelsField(o, out) })
}

func (s *Server) createModel(c *gin.Context) {
	body, ok := jsonBody(c)
	if !ok {
		return
	}
	node := body.Get("model")
	id, err := wire.String(node, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	name, _ := wire.OptString(node, "name")
	concepts, err := predictions.ParseConcepts(node, "output_info.data.concepts")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	exclusive, err := wire.OptBool(node, "output_info.output_config.concepts_mutually_exclusive")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	closed, err := wire.OptBool(node, "output_info.output_config.closed_environment")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	language, _ := wire.OptString(node, "output_info.output_config.language")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, exists := s.store.models[id]; exists {
		badRequest(c, "model "+id+" already exists")
		return
	}
	for i := range concepts {
		if known, ok := s.store.concepts[concepts[i].ID]; ok {
			concepts[i] = known
		} else if concepts[i].Name == "" {
			concepts[i].Name = concepts[i].ID
		}
	}
	m := domain.Model{
		ID:          id,
		Name:        lo.Ternary(name != "", name, id),
		AppID:       appID,
		DisplayName: name,
		CreatedAt:   s.store.now().UTC(),
		OutputInfo: outputinfo.ConceptOutputInfo{
			Header:            outputinfo.Header{Kind: "concept", KindExt: "concept"},
			Concepts:          concepts,
			MutuallyExclusive: exclusive,
			ClosedEnvironment: closed,
			Language:          language,
		},
	}
	s.store.models[id] = &model{m: m}
	s.store.modelOrder = append(s.store.modelOrder, id)
	reply(c, func(o *wire.Object) { o.SetRaw("model", m.Serialize()) })
}

func (s *Server) deleteModel(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	m := s.lookupModel(c, c.Param("id"))
	if m == nil {
		return
	}
	if m.m.AppID == publicAppID {
		middleware.AbortWithStatus(c, http.StatusForbidden, domain.StatusInvalidArgument, "Public models cannot be deleted")
		return
	}
	delete(s.store.models, m.m.ID)
	s.store.modelOrder = removeIDs(s.store.modelOrder, map[string]bool{m.m.ID: true})
	reply(c, nil)
}

// deleteAllModels removes every model of the caller's application.
func (s *Server) deleteAllModels(c *gin.Context) {
	body, ok := jsonBody(c)
	if !ok {
		return
	}
	if !body.Get("delete_all").Bool() {
		badRequest(c, "delete_all must be true")
		return
	}
	s.store.mu.Lock()
	gone := map[string]bool{}
	for id, m := range s.store.models {
		if m.m.AppID != publicAppID {
			gone[id] = true
			delete(s.store.models, id)
		}
	}
	s.store.modelOrder = removeIDs(s.store.modelOrder, gone)
	s.store.mu.Unlock()
	reply(c, nil)
}

// trainModel queues a new version. It finishes after the configured number of
// reads, failing with no data when the model has no concepts.
func (s *Server) trainModel(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	m := s.lookupModel(c, c.Param("id"))
	if m == nil {
		return
	}

	var concepts []predictions.Concept
	if info, ok := m.m.OutputInfo.(outputinfo.ConceptOutputInfo); ok {
		concepts = info.Concepts
	}
	conceptIDs := lo.Map(concepts, func(c predictions.Concept, _ int) string { return c.ID })
	inputs := lo.CountBy(s.store.inputOrder, func(id string) bool {
		return lo.SomeBy(s.store.inputs[id].PositiveConcepts(), func(c predictions.Concept) bool {
			return lo.Contains(conceptIDs, c.ID)
		})
	})

	final := domain.ModelTrained
	if len(concepts) == 0 && m.m.AppID != publicAppID {
		final = domain.ModelTrainingNoData
	}
	steps := append(lo.RepeatBy(s.store.trainingReads-1, func(int) domain.ModelTrainingCode { return domain.ModelTraining }), final)

	v := &version{
		v: domain.ModelVersion{
			ID:                 newID(),
			CreatedAt:          s.store.now().UTC(),
			Status:             domain.ModelTrainingStatus{Code: domain.ModelQueuedForTraining, Description: trainingDescription(domain.ModelQueuedForTraining)},
			ActiveConceptCount: lo.ToPtr(len(concepts)),
			TotalInputCount:    lo.ToPtr(inputs),
		},
		trainSteps: steps,
	}
	m.versions = append([]*version{v}, m.versions...)

	out := m.m
	snapshot := v.v
	out.Version = &snapshot
	reply(c, func(o *wire.Object) { o.SetRaw("model", out.Serialize()) })
}

// lookupVersion answers 404 and reports nil when either id is unknown. Callers
// hold the lock.
func (s *Server) lookupVersion(c *gin.Context) *version {
	m := s.lookupModel(c, c.Param("id"))
	if m == nil {
		return nil
	}
	v := m.find(c.Param("vid"))
	if v == nil {
		notFound(c, "Model version "+c.Param("vid"))
	}
	return v
}

func (s *Server) getModelVersion(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	v := s.lookupVersion(c)
	if v == nil {
		return
	}
	snapshot := v.v
	v.advance()
	reply(c, func(o *wire.Object) { o.SetRaw("model_version", snapshot.Serialize()) })
}

func (s *Server) listModelVersions(c *gin.Context) {
	pageNum, perPage := pageParams(c)
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	m := s.lookupModel(c, c.Param("id"))
	if m == nil {
		return
	}
	ids := page(lo.Map(m.versions, func(v *version, _ int) string { return v.v.ID }), pageNum, perPage)
	out := lo.Map(ids, func(id string, _ int) string { return m.find(id).v.Serialize() })
	reply(c, func(o *wire.Object) { o.SetArray("model_versions", out) })
}

func (s *Server) deleteModelVersion(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	v := s.lookupVersion(c)
	if v == nil {
		return
	}
	m := s.store.models[c.Param("id")]
	m.versions = lo.Without(m.versions, v)
	reply(c, nil)
}

// evaluateModel queues an evaluation of a trained version.
func (s *Server) evaluateModel(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	v := s.lookupVersion(c)
	if v == nil {
		return
	}
	if !v.v.Status.IsTrained() {
		badRequest(c, "model version is not trained")
		return
	}
	v.v.Metrics = &domain.ModelMetricsStatus{Code: domain.ModelQueuedForEvaluation, Description: metricsDescription(domain.ModelQueuedForEvaluation)}
	v.evalSteps = []domain.ModelMetricsCode{domain.ModelEvaluating, domain.ModelEvaluated}
	snapshot := v.v
	reply(c, func(o *wire.Object) { o.SetRaw("model_version", snapshot.Serialize()) })
}
