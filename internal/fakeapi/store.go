package fakeapi

import (
	"strings"
	"sync"
	"time"

	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/outputinfo"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	// publicAppID owns the public models and their concepts.
	publicAppID = "main"
	// appID owns everything callers create.
	appID = "my-first-application"
)

// Ids of the public models the store starts with.
const (
	GeneralModelID       = "aaa03c23b3724a16a56b629203edc62c"
	ColorModelID         = "eeed0b6733a644cea07cf4c60f87ebb7"
	DetectionModelID     = "a403429f2ddf4b49b307e318f00e528b"
	FaceDetectionModelID = "a416b6a4fbfb4a4f9a1e8fcd5b8d5bf2"
	CelebrityModelID     = "e466caa0619f444ab97497640cefc4dc"
	DemographicsModelID  = "c0c0ac362b03416da06ab3fa36fb58e3"
	FaceEmbeddingModelID = "d02b4508df58432fbb84e800597b8959"
	EmbeddingModelID     = "bbb5f41425b8468d9b7a554ff10f8581"
	FocusModelID         = "c2cf7cecd8a6427da375b9f35fcd2381"
	LogoModelID          = "c443119bf2ed4da98487520d01a0b1e3"
	ClusterModelID       = "cccbe437d6e54e2bb911c6aa292fb072"
)

// version is a model version plus the states it will move through as it is
// read. Each read reports the current state and then advances one step.
type version struct {
	v          domain.ModelVersion
	trainSteps []domain.ModelTrainingCode
	evalSteps  []domain.ModelMetricsCode
}

func (v *version) advance() {
	if len(v.trainSteps) > 0 {
		v.v.Status = domain.ModelTrainingStatus{Code: v.trainSteps[0], Description: trainingDescription(v.trainSteps[0])}
		v.trainSteps = v.trainSteps[1:]
	}
	if len(v.evalSteps) > 0 {
		v.v.Metrics = &domain.ModelMetricsStatus{Code: v.evalSteps[0], Description: metricsDescription(v.evalSteps[0])}
		v.evalSteps = v.evalSteps[1:]
	}
}

type model struct {
	m domain.Model
	// versions are newest first.
	versions []*version
}

func (m *model) latest() *version {
	if len(m.versions) == 0 {
		return nil
	}
	return m.versions[0]
}

func (m *model) find(versionID string) *version {
	v, _ := lo.Find(m.versions, func(v *version) bool { return v.v.ID == versionID })
	return v
}

// view is the model as returned to callers: at versionID, or the latest
// version when versionID is empty. Reading advances that version.
func (m *model) view(versionID string) (domain.Model, bool) {
	out := m.m
	v := m.latest()
	if versionID != "" {
		if v = m.find(versionID); v == nil {
			return domain.Model{}, false
		}
	}
	if v != nil {
		snapshot := v.v
		out.Version = &snapshot
		v.advance()
	}
	return out, true
}

// store is the in-memory state of the fake service. Lists keep insertion order.
type store struct {
	mu  sync.Mutex
	now func() time.Time

	// TrainingReads is how many reads a queued training takes to finish.
	trainingReads int

	concepts     map[string]predictions.Concept
	conceptOrder []string
	models       map[string]*model
	modelOrder   []string
	inputs       map[string]domain.Input
	inputOrder   []string
}

func newStore(now func() time.Time, trainingReads int) *store {
	s := &store{
		now:           now,
		trainingReads: trainingReads,
		concepts:      map[string]predictions.Concept{},
		models:        map[string]*model{},
		inputs:        map[string]domain.Input{},
	}
	s.seed()
	return s
}

func header(kind, ext string) outputinfo.Header {
	return outputinfo.Header{Kind: kind, KindExt: ext, Msg: "Show output_info with: GET /models/{model_id}/output_info"}
}

func named(pairs ...string) []predictions.Concept {
	out := make([]predictions.Concept, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, predictions.Concept{ID: pairs[i], Name: pairs[i+1], AppID: publicAppID})
	}
	return out
}

func (s *store) seed() {
	generalConcepts := named("ai_8S2Vq3cR", "dog", "ai_SzsXMB1w", "cat", "ai_786Zr311", "animal", "ai_tBcWlsCp", "nature", "ai_VPmHr5bm", "outdoors")
	logos := named("ai_Fn9mKGwx", "Apple Inc.", "ai_h7QTbD1k", "Pepsi")
	celebrities := named("ai_x2KRfB8c", "ada lovelace")
	trained := domain.ModelTrainingStatus{Code: domain.ModelTrained, Description: trainingDescription(domain.ModelTrained)}

	public := []domain.Model{
		{ID: GeneralModelID, Name: "general", OutputInfo: outputinfo.ConceptOutputInfo{Header: header("concept", "concept"), Concepts: generalConcepts}},
		{ID: ColorModelID, Name: "color", OutputInfo: outputinfo.ColorOutputInfo{ConceptsOutputInfo: outputinfo.ConceptsOutputInfo{Header: header("color", "color")}}},
		{ID: DetectionModelID, Name: "general-detection", OutputInfo: outputinfo.DetectionOutputInfo{ConceptsOutputInfo: outputinfo.ConceptsOutputInfo{Header: header("concept", "detect-concept"), Concepts: generalConcepts}}},
		{ID: FaceDetectionModelID, Name: "face", OutputInfo: outputinfo.FaceDetectionOutputInfo{ConceptsOutputInfo: outputinfo.ConceptsOutputInfo{Header: header("facedetect", "facedetect")}}},
		{ID: CelebrityModelID, Name: "celebrity", OutputInfo: outputinfo.FaceDetectionOutputInfo{ConceptsOutputInfo: outputinfo.ConceptsOutputInfo{Header: header("concept", "facedetect-identity"), Concepts: celebrities}}},
		{ID: DemographicsModelID, Name: "demographics", OutputInfo: outputinfo.DemographicsOutputInfo{HeaderOnly: outputinfo.HeaderOnly{Header: header("facedetect", "facedetect-demographics")}}},
		{ID: FaceEmbeddingModelID, Name: "face-embed", OutputInfo: outputinfo.FaceEmbeddingOutputInfo{HeaderOnly: outputinfo.HeaderOnly{Header: header("embed", "facedetect-embed")}}},
		{ID: EmbeddingModelID, Name: "general-embed", OutputInfo: outputinfo.EmbeddingOutputInfo{HeaderOnly: outputinfo.HeaderOnly{Header: header("embed", "embed")}}},
		{ID: FocusModelID, Name: "focus", OutputInfo: outputinfo.FocusOutputInfo{HeaderOnly: outputinfo.HeaderOnly{Header: header("blur", "focus")}}},
		{ID: LogoModelID, Name: "logo", OutputInfo: outputinfo.LogoOutputInfo{ConceptsOutputInfo: outputinfo.ConceptsOutputInfo{Header: header("concept", "logo"), Concepts: logos}}},
		{ID: ClusterModelID, Name: "general-cluster", OutputInfo: outputinfo.ClusterOutputInfo{HeaderOnly: outputinfo.HeaderOnly{Header: header("cluster", "cluster")}}},
	}
	now := s.now().UTC()
	for _, m := range public {
		m.AppID = publicAppID
		m.DisplayName = m.Name
		m.CreatedAt = now
		v := &version{v: domain.ModelVersion{ID: newID(), CreatedAt: now, Status: trained}}
		s.models[m.ID] = &model{m: m, versions: []*version{v}}
		s.modelOrder = append(s.modelOrder, m.ID)
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// page slices ids for a 1-based page of perPage items.
func page(ids []string, pageNum, perPage int) []string {
	if pageNum < 1 {
		pageNum = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	start := (pageNum - 1) * perPage
	if start >= len(ids) {
		return nil
	}
	return ids[start:min(start+perPage, len(ids))]
}

// matchName applies the service's name matching: case-insensitive, with a
// trailing * as a prefix wildcard.
func matchName(pattern, name string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	name = strings.ToLower(name)
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return pattern == name
}

func removeIDs(order []string, gone map[string]bool) []string {
	return lo.Filter(order, func(id string, _ int) bool { return !gone[id] })
}

func trainingDescription(c domain.ModelTrainingCode) string {
	switch c {
	case domain.ModelTrained:
		return "Model is trained and ready"
	case domain.ModelTraining:
		return "Model is currently training"
	case domain.ModelQueuedForTraining:
		return "Model is queued for training"
	case domain.ModelTrainingNoData:
		return "Model has no data to train on"
	default:
		return "Model training status"
	}
}

func metricsDescription(c domain.ModelMetricsCode) string {
	switch c {
	case domain.ModelEvaluated:
		return "Model was successfully evaluated"
	case domain.ModelEvaluating:
		return "Model is evaluating"
	case domain.ModelQueuedForEvaluation:
		return "Model is queued for evaluation"
	default:
		return "Model evaluation status"
	}
}
