package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/knowledge"
	"github.com/cloo-solutions/sevakai/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockObjectGetter is a mock implementation of ObjectGetter
type MockObjectGetter struct {
	mock.Mock
}

func (m *MockObjectGetter) GetObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func TestLoadKnowledgeIndex_Embedded(t *testing.T) {
	idx, err := LoadKnowledgeIndex(context.Background(), KnowledgeSource{}, nil)

	require.NoError(t, err)
	assert.Same(t, knowledge.Default(), idx)
}

func TestLoadKnowledgeIndex_FileWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.md")
	require.NoError(t, os.WriteFile(path, []byte("## Company Overview\nfrom file\n"), 0o644))
	objects := new(MockObjectGetter)

	idx, err := LoadKnowledgeIndex(context.Background(), KnowledgeSource{File: path, ObjectKey: "k", Objects: objects}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"Company Overview"}, idx.Titles())
	objects.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
}

func TestLoadKnowledgeIndex_MissingFile(t *testing.T) {
	_, err := LoadKnowledgeIndex(context.Background(), KnowledgeSource{File: filepath.Join(t.TempDir(), "nope.md")}, nil)
	assert.Error(t, err)
}

func TestLoadKnowledgeIndex_Object(t *testing.T) {
	objects := new(MockObjectGetter)
	objects.On("GetObject", mock.Anything, "knowledge/sevakai.md").
		Return([]byte("## Company Overview\nremote\n## Pricing\nplans\n"), nil).Once()

	idx, err := LoadKnowledgeIndex(context.Background(), KnowledgeSource{ObjectKey: "knowledge/sevakai.md", Objects: objects}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
}

func TestLoadKnowledgeIndex_ObjectMissingFallsBack(t *testing.T) {
	objects := new(MockObjectGetter)
	objects.On("GetObject", mock.Anything, "k").Return(nil, storage.ErrObjectNotFound).Once()

	idx, err := LoadKnowledgeIndex(context.Background(), KnowledgeSource{ObjectKey: "k", Objects: objects}, nil)

	require.NoError(t, err)
	assert.Same(t, knowledge.Default(), idx)
}

func TestLoadKnowledgeIndex_ObjectError(t *testing.T) {
	objects := new(MockObjectGetter)
	objects.On("GetObject", mock.Anything, "k").Return(nil, errors.New("access denied")).Once()

	_, err := LoadKnowledgeIndex(context.Background(), KnowledgeSource{ObjectKey: "k", Objects: objects}, nil)

	assert.ErrorContains(t, err, "access denied")
}

func TestKnowledgeService_Context(t *testing.T) {
	svc := NewKnowledgeService(knowledge.BuildIndex(testDocument))

	result, err := svc.Context(context.Background(), "pricing")
	require.NoError(t, err)
	require.Len(t, result.Sections, 3)
	assert.Equal(t, "Company Overview", result.Sections[0].Title)
	assert.Equal(t, 1.0, result.Sections[0].Score)
	assert.Contains(t, result.Bundle, "## Pricing\n")

	_, err = svc.Context(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)

	assert.Equal(t, []string{"Company Overview", "Services Offered", "Pricing"}, svc.Titles(context.Background()))
}
