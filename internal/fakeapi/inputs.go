package fakeapi

import (
	"fmt"

	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/domain"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

func inputsField(o *wire.Object, ins []domain.Input) {
	o.SetArray("inputs", lo.Map(ins, func(in domain.Input, _ int) string { return in.Serialize() }))
}

func (s *Server) getInput(c *gin.Context) {
	s.store.mu.Lock()
	in, ok := s.store.inputs[c.Param("id")]
	s.store.mu.Unlock()
	if !ok {
		notFound(c, "Input")
		return
	}
	reply(c, func(o *wire.Object) { o.SetRaw("input", in.Serialize()) })
}

func (s *Server) listInputs(c *gin.Context) {
	pageNum, perPage := pageParams(c)
	s.store.mu.Lock()
	out := lo.Map(page(s.store.inputOrder, pageNum, perPage), func(id string, _ int) domain.Input {
		return s.store.inputs[id]
	})
	s.store.mu.Unlock()
	reply(c, func(o *wire.Object) { inputsField(o, out) })
}

// addInputs stores inputs as already downloaded. A URL already stored is
// rejected unless the input allows duplicates.
func (s *Server) addInputs(c *gin.Context) {
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

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for i, in := range inputs {
		if in.ID != "" {
			if _, exists := s.store.inputs[in.ID]; exists {
				badRequest(c, fmt.Sprintf("inputs[%d]: input %s already exists", i, in.ID))
				return
			}
		}
		if in.URL != "" && !in.AllowDuplicateURL && s.hasURL(in.URL) {
			badRequest(c, fmt.Sprintf("inputs[%d]: duplicate url %s", i, in.URL))
			return
		}
	}
	now := s.store.now().UTC()
	for i := range inputs {
		in := &inputs[i]
		if in.ID == "" {
			in.ID = newID()
		}
		in.CreatedAt = now
		in.Status = &domain.InputStatus{Code: domain.InputDownloadSuccess, Description: "Download complete"}
		s.store.inputs[in.ID] = *in
		s.store.inputOrder = append(s.store.inputOrder, in.ID)
	}
	reply(c, func(o *wire.Object) { inputsField(o, inputs) })
}

func (s *Server) hasURL(url string) bool {
	return lo.SomeBy(s.store.inputOrder, func(id string) bool { return s.store.inputs[id].URL == url })
}

func (s *Server) deleteInputs(c *gin.Context) {
	body, ok := jsonBody(c)
	if !ok {
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if body.Get("delete_all").Bool() {
		s.store.inputs = map[string]domain.Input{}
		s.store.inputOrder = nil
		reply(c, nil)
		return
	}
	ids := lo.Map(body.Get("ids").Array(), func(r gjson.Result, _ int) string { return r.String() })
	if len(ids) == 0 {
		badRequest(c, "ids must not be empty")
		return
	}
	gone := map[string]bool{}
	for _, id := range ids {
		if _, exists := s.store.inputs[id]; !exists {
			notFound(c, "Input "+id)
			return
		}
		gone[id] = true
	}
	for id := range gone {
		delete(s.store.inputs, id)
	}
	s.store.inputOrder = removeIDs(s.store.inputOrder, gone)
	reply(c, nil)
}

func (s *Server) inputsStatus(c *gin.Context) {
	s.store.mu.Lock()
	var counts domain.InputsStatus
	for _, in := range s.store.inputs {
		switch lo.FromPtr(in.Status).Code {
		case domain.InputDownloadSuccess:
			counts.Processed++
		case domain.InputDownloadFailed:
			counts.Errors++
		case domain.InputDownloadInProgress:
			counts.Processing++
		default:
			counts.ToProcess++
		}
	}
	s.store.mu.Unlock()
	reply(c, func(o *wire.Object) { o.SetRaw("counts", counts.Serialize()) })
}
