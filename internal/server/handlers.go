package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ppiankov/distill/internal/model"
	"github.com/ppiankov/distill/internal/source"
)

const (
	defaultConcepts = 10
	defaultTags     = 5
	defaultRelated  = 5
)

// SummaryRequest asks for a summary of inline text
type SummaryRequest struct {
	Text       string `json:"text" validate:"required"`
	Title      string `json:"title"`
	DocumentID string `json:"document_id"`
	Level      string `json:"level" validate:"omitempty,oneof=brief medium detailed"`
	UseAI      *bool  `json:"use_ai"`
	Save       bool   `json:"save"`
}

// SummaryResponse is a summary plus the id of the stored extract when saved
type SummaryResponse struct {
	*model.SummaryResult
	ExtractID string `json:"extract_id,omitempty"`
}

// TextRequest carries text to analyze
type TextRequest struct {
	Text  string `json:"text" validate:"required"`
	Count int    `json:"count" validate:"omitempty,min=1,max=100"`
	Key   int    `json:"key" validate:"omitempty,min=1,max=100"`
}

// ExtractRequest creates an extract
type ExtractRequest struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content" validate:"required"`
	Context    string `json:"context"`
	Priority   int    `json:"priority" validate:"omitempty,min=1,max=100"`
}

// ItemsRequest generates learning items for an extract
type ItemsRequest struct {
	Type  string `json:"type" validate:"required,oneof=qa cloze"`
	Max   int    `json:"max" validate:"omitempty,min=1,max=100"`
	UseAI bool   `json:"use_ai"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := s.svc.Defaults()
	if req.Level != "" {
		level, err := model.ParseLevel(req.Level)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		opts.Level = level
	}
	if req.UseAI != nil {
		opts.UseAI = *req.UseAI
	}

	doc := &source.Document{Ref: req.DocumentID, Title: req.Title, Text: req.Text}
	res, err := s.svc.Summarize(r.Context(), doc, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := SummaryResponse{SummaryResult: res}
	if req.Save {
		ex, err := s.svc.CreateSummaryExtract(r.Context(), res)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		resp.ExtractID = ex.ID
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConcepts(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	n := req.Count
	if n == 0 {
		n = defaultConcepts
	}
	concepts := s.svc.Concepts(req.Text, n)
	if concepts == nil {
		concepts = []model.Concept{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"concepts": concepts})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Key > 0 {
		key := s.svc.KeySections(req.Text, req.Key)
		if key == nil {
			key = []model.KeySection{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"key_sections": key})
		return
	}
	sections := s.svc.Sections(req.Text)
	if sections == nil {
		sections = []model.Section{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	k := req.Count
	if k == 0 {
		k = defaultTags
	}
	suggestions := s.svc.Tags(req.Text, k)
	if suggestions == nil {
		suggestions = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"tags": suggestions})
}

func (s *Server) handleCreateExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	ex := &model.Extract{
		DocumentID: req.DocumentID,
		Content:    req.Content,
		Context:    req.Context,
		Priority:   req.Priority,
	}
	if err := s.svc.CreateExtract(r.Context(), ex); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleGetExtract(w http.ResponseWriter, r *http.Request) {
	ex, err := s.svc.GetExtract(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ex)
}

func (s *Server) handleGenerateItems(w http.ResponseWriter, r *http.Request) {
	var req ItemsRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	items, err := s.svc.GenerateItems(r.Context(), chi.URLParam(r, "id"), model.ItemType(req.Type), req.Max, req.UseAI)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if items == nil {
		items = []model.LearningItem{}
	}
	respondJSON(w, http.StatusCreated, map[string]any{"items": items})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Items(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if items == nil {
		items = []model.LearningItem{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	k := defaultRelated
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, r, fmt.Errorf("%w: k must be a positive integer", errBadRequest))
			return
		}
		k = n
	}
	matches, err := s.svc.RelatedExtracts(r.Context(), chi.URLParam(r, "id"), k)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"related": matches})
}
