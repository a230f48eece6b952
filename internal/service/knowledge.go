package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/knowledge"
	"github.com/cloo-solutions/sevakai/internal/logging"
	"github.com/cloo-solutions/sevakai/internal/storage"
	"go.uber.org/zap"
)

// ObjectGetter fetches a stored object. *storage.S3Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// KnowledgeSource says where the knowledge document comes from. The first
// configured option wins: File, then Objects/ObjectKey, then the embedded copy.
type KnowledgeSource struct {
	File      string
	ObjectKey string
	Objects   ObjectGetter
}

// LoadKnowledgeIndex reads the knowledge document and indexes it once.
// A missing S3 object falls back to the embedded document.
func LoadKnowledgeIndex(ctx context.Context, src KnowledgeSource, logger *zap.Logger) (*knowledge.Index, error) {
	logger = logging.OrNop(logger)

	if src.File != "" {
		data, err := os.ReadFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read knowledge file: %w", err)
		}
		idx := knowledge.BuildIndex(string(data))
		logger.Info("knowledge: loaded from file", zap.String("path", src.File), zap.Int("sections", idx.Len()))
		return idx, nil
	}

	if src.Objects != nil && src.ObjectKey != "" {
		data, err := src.Objects.GetObject(ctx, src.ObjectKey)
		switch {
		case err == nil:
			idx := knowledge.BuildIndex(string(data))
			logger.Info("knowledge: loaded from object storage", zap.String("key", src.ObjectKey), zap.Int("sections", idx.Len()))
			return idx, nil
		case errors.Is(err, storage.ErrObjectNotFound):
			logger.Warn("knowledge: object not found, using embedded document", zap.String("key", src.ObjectKey))
		default:
			return nil, fmt.Errorf("failed to fetch knowledge object: %w", err)
		}
	}

	idx := knowledge.Default()
	logger.Info("knowledge: using embedded document", zap.Int("sections", idx.Len()))
	return idx, nil
}

// ContextResult is a scored selection and the bundle rendered from it.
type ContextResult struct {
	Sections []domain.ScoredSection
	Bundle   string
}

// KnowledgeService exposes the shared index for inspection.
type KnowledgeService struct {
	index *knowledge.Index
}

func NewKnowledgeService(index *knowledge.Index) *KnowledgeService {
	return &KnowledgeService{index: index}
}

// Titles lists the indexed sections in document order.
func (s *KnowledgeService) Titles(_ context.Context) []string {
	return s.index.Titles()
}

// Context returns what the chatbot would see for query.
func (s *KnowledgeService) Context(_ context.Context, query string) (*ContextResult, error) {
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	selected := knowledge.Select(query, s.index)
	return &ContextResult{Sections: selected, Bundle: knowledge.Render(selected)}, nil
}
