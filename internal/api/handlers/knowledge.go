package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloo-solutions/sevakai/internal/api"
	"github.com/cloo-solutions/sevakai/internal/service"
)

type KnowledgeService interface {
	Titles(ctx context.Context) []string
	Context(ctx context.Context, query string) (*service.ContextResult, error)
}

type KnowledgeHandler struct {
	svc KnowledgeService
}

func NewKnowledgeHandler(svc KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

type ContextRequest struct {
	Query string `json:"query"`
}

type ScoredSectionResponse struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type ContextResponse struct {
	Query    string                  `json:"query"`
	Sections []ScoredSectionResponse `json:"sections"`
	Context  string                  `json:"context"`
}

type SectionsResponse struct {
	Sections []string `json:"sections"`
	Count    int      `json:"count"`
}

func (h *KnowledgeHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	titles := h.svc.Titles(r.Context())
	if titles == nil {
		titles = []string{}
	}
	api.Success(w, http.StatusOK, SectionsResponse{Sections: titles, Count: len(titles)})
}

func (h *KnowledgeHandler) SelectContext(w http.ResponseWriter, r *http.Request) {
	var req ContextRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	query := strings.TrimSpace(req.Query)
	result, err := h.svc.Context(r.Context(), query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sections := make([]ScoredSectionResponse, 0, len(result.Sections))
	for _, s := range result.Sections {
		sections = append(sections, ScoredSectionResponse{Title: s.Title, Score: s.Score})
	}

	api.Success(w, http.StatusOK, ContextResponse{
		Query:    query,
		Sections: sections,
		Context:  result.Bundle,
	})
}
