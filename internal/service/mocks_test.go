package service

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/cloo-solutions/medassist/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockSegmentRepository is a mock implementation of SegmentRepository
type MockSegmentRepository struct {
	mock.Mock
}

func (m *MockSegmentRepository) AddSegments(ctx context.Context, segments []EmbeddedSegment) (int, error) {
	args := m.Called(ctx, segments)
	return args.Int(0), args.Error(1)
}

func (m *MockSegmentRepository) QueryNearest(ctx context.Context, embedding []float32, k int) ([]domain.RetrievedSegment, error) {
	args := m.Called(ctx, embedding, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedSegment), args.Error(1)
}

func (m *MockSegmentRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSegmentRepository) Sources(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

// MockRetriever is a mock implementation of Retriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Query(ctx context.Context, text string, k int) ([]domain.RetrievedSegment, error) {
	args := m.Called(ctx, text, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedSegment), args.Error(1)
}

// MockWebSearcher is a mock implementation of WebSearcher
type MockWebSearcher struct {
	mock.Mock
}

func (m *MockWebSearcher) Search(ctx context.Context, query string, maxResults int, mode domain.SearchMode) ([]domain.WebResult, error) {
	args := m.Called(ctx, query, maxResults, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WebResult), args.Error(1)
}

// MockAnswerGenerator is a mock implementation of AnswerGenerator
type MockAnswerGenerator struct {
	mock.Mock
}

func (m *MockAnswerGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockAnswerLogRepository is a mock implementation of AnswerLogRepository
type MockAnswerLogRepository struct {
	mock.Mock
}

func (m *MockAnswerLogRepository) CreateAnswerLog(ctx context.Context, entry AnswerLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

// letterEmbedder embeds text as normalized letter frequencies.
type letterEmbedder struct{}

func (letterEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 26)
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / math.Sqrt(norm))
		}
	}
	return vec, nil
}

// memorySegmentRepository is an in-memory SegmentRepository ranking by
// cosine distance.
type memorySegmentRepository struct {
	mu       sync.Mutex
	segments map[string]EmbeddedSegment
}

func newMemorySegmentRepository() *memorySegmentRepository {
	return &memorySegmentRepository{segments: make(map[string]EmbeddedSegment)}
}

func (r *memorySegmentRepository) AddSegments(ctx context.Context, segments []EmbeddedSegment) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, s := range segments {
		if _, ok := r.segments[s.ID]; ok {
			continue
		}
		r.segments[s.ID] = s
		inserted++
	}
	return inserted, nil
}

func (r *memorySegmentRepository) QueryNearest(ctx context.Context, embedding []float32, k int) ([]domain.RetrievedSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hits := make([]domain.RetrievedSegment, 0, len(r.segments))
	for _, s := range r.segments {
		hits = append(hits, domain.RetrievedSegment{Segment: s.Segment, Distance: cosineDistance(embedding, s.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (r *memorySegmentRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.segments), nil
}

func (r *memorySegmentRepository) Sources(ctx context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sources := make(map[string]int)
	for _, s := range r.segments {
		sources[s.SourceFile]++
	}
	return sources, nil
}

func cosineDistance(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
}
