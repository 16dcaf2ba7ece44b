package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/medassist/internal/domain"
	"github.com/google/uuid"
)

// DefaultQueryLimit is the number of local segments used per answer.
const DefaultQueryLimit = 3

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddedSegment is a segment paired with the embedding of its text.
type EmbeddedSegment struct {
	domain.Segment
	Embedding []float32
}

// SegmentRepository defines the persistence interface for segments
type SegmentRepository interface {
	AddSegments(ctx context.Context, segments []EmbeddedSegment) (int, error)
	QueryNearest(ctx context.Context, embedding []float32, k int) ([]domain.RetrievedSegment, error)
	Count(ctx context.Context) (int, error)
	Sources(ctx context.Context) (map[string]int, error)
}

// UUIDGenerator defines the interface for generating UUIDs
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// KnowledgeStore is the vector store of document segments. Every failure is
// returned as a *domain.AdapterError.
type KnowledgeStore struct {
	embedder EmbeddingClient
	repo     SegmentRepository
	txRunner TxRunner
}

func NewKnowledgeStore(embedder EmbeddingClient, repo SegmentRepository) *KnowledgeStore {
	return &KnowledgeStore{embedder: embedder, repo: repo}
}

// NewKnowledgeStoreWithTx inserts each Add batch in a single transaction.
func NewKnowledgeStoreWithTx(embedder EmbeddingClient, repo SegmentRepository, txRunner TxRunner) *KnowledgeStore {
	return &KnowledgeStore{embedder: embedder, repo: repo, txRunner: txRunner}
}

// Query returns up to k segments nearest to text. k <= 0 means DefaultQueryLimit.
func (s *KnowledgeStore) Query(ctx context.Context, text string, k int) ([]domain.RetrievedSegment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultQueryLimit
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, domain.ClassifyError("knowledge query", fmt.Errorf("failed to embed query: %w", err))
	}

	hits, err := s.repo.QueryNearest(ctx, embedding, k)
	if err != nil {
		return nil, domain.ClassifyError("knowledge query", fmt.Errorf("failed to query segments: %w", err))
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Add embeds and stores segments. Segments are assumed not to be present
// yet; a duplicate ID is ignored by the repository.
func (s *KnowledgeStore) Add(ctx context.Context, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	embedded := make([]EmbeddedSegment, 0, len(segments))
	for _, seg := range segments {
		if err := domain.ValidateSegment(seg); err != nil {
			return err
		}
		embedding, err := s.embedder.GenerateEmbedding(ctx, seg.Text)
		if err != nil {
			return domain.ClassifyError("knowledge add", fmt.Errorf("failed to embed segment %s: %w", seg.ID, err))
		}
		embedded = append(embedded, EmbeddedSegment{Segment: seg, Embedding: embedding})
	}

	insert := func(repo SegmentRepository) error {
		_, err := repo.AddSegments(ctx, embedded)
		return err
	}

	var err error
	if s.txRunner != nil {
		err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			return insert(repos.Segments())
		})
	} else {
		err = insert(s.repo)
	}
	if err != nil {
		return domain.ClassifyError("knowledge add", fmt.Errorf("failed to insert segments: %w", err))
	}
	return nil
}

// Count reports the number of stored segments.
func (s *KnowledgeStore) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, domain.ClassifyError("knowledge count", fmt.Errorf("failed to count segments: %w", err))
	}
	return n, nil
}

// Sources reports the number of segments stored per source file.
func (s *KnowledgeStore) Sources(ctx context.Context) (map[string]int, error) {
	sources, err := s.repo.Sources(ctx)
	if err != nil {
		return nil, domain.ClassifyError("knowledge sources", fmt.Errorf("failed to list sources: %w", err))
	}
	return sources, nil
}
