package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) Titles(ctx context.Context) []string {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockKnowledgeService) Context(ctx context.Context, query string) (*service.ContextResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ContextResult), args.Error(1)
}

func TestKnowledgeHandler_ListSections(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)
	mockSvc.On("Titles", mock.Anything).Return([]string{"Company Overview", "Pricing"})

	w := httptest.NewRecorder()
	handler.ListSections(w, httptest.NewRequest(http.MethodGet, "/knowledge/sections", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data SectionsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Count)
	assert.Equal(t, "Pricing", resp.Data.Sections[1])
}

func TestKnowledgeHandler_SelectContext(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("Context", mock.Anything, "pricing").Return(&service.ContextResult{
		Sections: []domain.ScoredSection{
			{KnowledgeSection: domain.KnowledgeSection{Title: "Company Overview"}, Score: 1},
			{KnowledgeSection: domain.KnowledgeSection{Title: "Pricing"}, Score: 6},
		},
		Bundle: "## Company Overview\n...\n\n## Pricing\n...",
	}, nil)

	w := httptest.NewRecorder()
	handler.SelectContext(w, httptest.NewRequest(http.MethodPost, "/knowledge/context", bytes.NewBufferString(`{"query":"  pricing "}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data ContextResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pricing", resp.Data.Query)
	require.Len(t, resp.Data.Sections, 2)
	assert.Equal(t, 6.0, resp.Data.Sections[1].Score)
	assert.Contains(t, resp.Data.Context, "## Pricing")
}

func TestKnowledgeHandler_SelectContext_EmptyQuery(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)
	mockSvc.On("Context", mock.Anything, "").Return(nil, domain.ErrEmptyQuery)

	w := httptest.NewRecorder()
	handler.SelectContext(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"query":"   "}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
