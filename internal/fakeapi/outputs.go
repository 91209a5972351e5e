package fakeapi

import (
	"fmt"
	"sort"

	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/domain"
	"github.com/osvaldoandrade/visiongo/pkg/outputinfo"
	"github.com/osvaldoandrade/visiongo/pkg/predictions"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const defaultSampleMs = 1000

// outputConfig is the model.output_info.output_config block of a predict call.
type outputConfig struct {
	language    string
	minValue    *decimal.Decimal
	maxConcepts int
	selected    []string
	sampleMs    int
}

func parseOutputConfig(body gjson.Result) (outputConfig, error) {
	node := body.Get("model.output_info.output_config")
	cfg := outputConfig{
		language:    node.Get("language").String(),
		maxConcepts: int(node.Get("max_concepts").Int()),
		sampleMs:    int(node.Get("sample_ms").Int()),
	}
	if raw := node.Get("min_value"); raw.Exists() {
		v, err := decimal.NewFromString(raw.Raw)
		if err != nil {
			return outputConfig{}, fmt.Errorf("min_value: %w", err)
		}
		cfg.minValue = &v
	}
	selected, err := predictions.ParseConcepts(node, "select_concepts")
	if err != nil {
		return outputConfig{}, err
	}
	cfg.selected = lo.Map(selected, func(c predictions.Concept, _ int) string { return c.ID })
	if cfg.sampleMs <= 0 {
		cfg.sampleMs = defaultSampleMs
	}
	return cfg, nil
}

func (s *Server) predict(c *gin.Context) {
	body, ok := jsonBody(c)
	if !ok {
		return
	}
	items, err := wire.Array(body, "inputs")
	if err != nil || len(items) == 0 {
		badRequest(c, "inputs must be a non-empty array")
		return
	}
	inputs := make([]domain.Input, 0, len(items))
	for i, item := range items {
		in, err := domain.ParseInput(item)
		if err != nil {
			badRequest(c, fmt.Sprintf("inputs[%d]: %v", i, err))
			return
		}
		if in.URL == "" && len(in.Bytes) == 0 {
			badRequest(c, fmt.Sprintf("inputs[%d]: no url or base64 given", i))
			return
		}
		inputs = append(inputs, in)
	}
	cfg, err := parseOutputConfig(body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	s.store.mu.Lock()
	m := s.lookupModel(c, c.Param("id"))
	if m == nil {
		s.store.mu.Unlock()
		return
	}
	view := m.m
	v := m.latest()
	if vid := c.Param("vid"); vid != "" {
		if v = m.find(vid); v == nil {
			s.store.mu.Unlock()
			notFound(c, "Model version "+vid)
			return
		}
	}
	if v != nil {
		snapshot := v.v
		view.Version = &snapshot
	}
	now := s.store.now().UTC()
	s.store.mu.Unlock()

	if view.Version == nil || !view.Version.Status.IsTrained() {
		badRequest(c, "model "+view.ID+" is not trained")
		return
	}

	outputs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if in.ID == "" {
			in.ID = newID()
		}
		data := predictData(view, in, cfg)
		outputs = append(outputs, wire.NewObject().
			Set("id", newID()).
			SetRaw("status", okStatus).
			Set("created_at", wire.FormatTime(now)).
			SetRaw("model", view.Serialize()).
			SetRaw("input", in.Serialize()).
			SetRaw("data", data).
			String())
	}
	reply(c, func(o *wire.Object) { o.SetArray("outputs", outputs) })
}

// predictData builds a deterministic data node for the model's prediction type.
func predictData(m domain.Model, in domain.Input, cfg outputConfig) string {
	crop := predictions.Crop{Top: 0.1, Left: 0.2, Bottom: 0.6, Right: 0.7}
	data := wire.NewObject()

	switch kind := m.PredictionType(); {
	case kind == predictions.TypeConcept && in.Kind == domain.InputVideo:
		var frames []string
		for i := 0; i < 3; i++ {
			frames = append(frames, predictions.Frame{Index: i, Time: i * cfg.sampleMs, Concepts: scoredConcepts(m, cfg)}.Serialize())
		}
		data.SetArray("frames", frames)
	case kind == predictions.TypeConcept:
		data.SetArray("concepts", predictions.SerializeConcepts(scoredConcepts(m, cfg)))
	case kind == predictions.TypeColor:
		data.SetArray("colors", []string{
			predictions.Color{RawHex: "#f2f2f2", Hex: "#f5f5f5", W3CName: "WhiteSmoke", Value: 0.6525}.Serialize(),
			predictions.Color{RawHex: "#1a1a1a", Hex: "#000000", W3CName: "Black", Value: 0.3475}.Serialize(),
		})
	case kind == predictions.TypeRegion:
		data.SetArray("regions", []string{predictions.Region{ID: newID(), Crop: crop, Concepts: scoredConcepts(m, cfg)}.Serialize()})
	case kind == predictions.TypeLogo:
		data.SetArray("regions", []string{predictions.Logo{Crop: crop, Concepts: lo.Slice(scoredConcepts(m, cfg), 0, 1)}.Serialize()})
	case kind == predictions.TypeFaceDetection:
		identity := scoredConcepts(m, cfg)
		if len(identity) == 0 {
			identity = nil
		}
		data.SetArray("regions", []string{predictions.FaceDetection{ID: newID(), Crop: crop, Identity: identity}.Serialize()})
	case kind == predictions.TypeDemographics:
		data.SetArray("regions", []string{predictions.Demographics{
			ID:                      newID(),
			Crop:                    crop,
			AgeAppearance:           fixedConcepts("ai_age_28", "28", 0.41),
			GenderAppearance:        fixedConcepts("ai_gender_f", "feminine", 0.87),
			MulticulturalAppearance: fixedConcepts("ai_mc_w", "white", 0.72),
		}.Serialize()})
	case kind == predictions.TypeFaceEmbedding:
		data.SetArray("regions", []string{predictions.FaceEmbedding{Crop: crop, Embeddings: []predictions.Embedding{vector(in, 8)}}.Serialize()})
	case kind == predictions.TypeEmbedding:
		data.SetArray("embeddings", []string{vector(in, 16).Serialize()})
	case kind == predictions.TypeFocus:
		data.Set("focus.value", 0.9123).
			SetArray("regions", []string{predictions.Focus{Crop: crop, Density: 0.7681}.Serialize()})
	case kind == predictions.TypeCluster:
		data.SetArray("clusters", []string{predictions.Cluster{ID: "cluster_" + in.ID[:min(6, len(in.ID))], Count: 1, Score: 1}.Serialize()})
	}
	return data.String()
}

// scoredConcepts scores the model's concepts in descending order and applies
// select_concepts, min_value and max_concepts, in that order.
func scoredConcepts(m domain.Model, cfg outputConfig) []predictions.Concept {
	var known []predictions.Concept
	switch info := m.OutputInfo.(type) {
	case outputinfo.ConceptOutputInfo:
		known = info.Concepts
	case outputinfo.DetectionOutputInfo:
		known = info.Concepts
	case outputinfo.LogoOutputInfo:
		known = info.Concepts
	case outputinfo.FaceDetectionOutputInfo:
		known = info.Concepts
	}

	step := decimal.RequireFromString("0.0731")
	top := decimal.RequireFromString("0.9874")
	out := make([]predictions.Concept, 0, len(known))
	for i, c := range known {
		if len(cfg.selected) > 0 && !lo.Contains(cfg.selected, c.ID) {
			continue
		}
		score := top.Sub(step.Mul(decimal.NewFromInt(int64(i))))
		if cfg.minValue != nil && score.LessThan(*cfg.minValue) {
			continue
		}
		value, _ := score.Float64()
		c = c.WithValue(value)
		if cfg.language != "" {
			c.Language = cfg.language
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if cfg.maxConcepts > 0 && len(out) > cfg.maxConcepts {
		out = out[:cfg.maxConcepts]
	}
	return out
}

func fixedConcepts(id, name string, value float64) []predictions.Concept {
	return []predictions.Concept{{ID: id, Name: name, Value: value, HasValue: true, AppID: publicAppID}}
}

// vector derives a stable embedding from the input's id.
func vector(in domain.Input, dims int) predictions.Embedding {
	seed := 0
	for _, r := range in.ID {
		seed = (seed*31 + int(r)) % 9973
	}
	v := make([]float64, dims)
	for i := range v {
		v[i] = float64((seed+i*97)%1000) / 1000
	}
	return predictions.Embedding{Vector: v, NumDimensions: dims}
}
