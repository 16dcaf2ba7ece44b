package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloo-solutions/medassist/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func retrieved(source string, index int) domain.RetrievedSegment {
	return domain.RetrievedSegment{Segment: domain.NewSegment(source, index, "text")}
}

func TestKnowledgeStore_Query_Success(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockSegmentRepository)
	store := NewKnowledgeStore(embedder, repo)

	vec := []float32{0.1, 0.2}
	embedder.On("GenerateEmbedding", ctx, "salt intake").Return(vec, nil)
	repo.On("QueryNearest", ctx, vec, 3).Return([]domain.RetrievedSegment{retrieved("A.pdf", 0)}, nil)

	hits, err := store.Query(ctx, "salt intake", 3)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "A.pdf_0", hits[0].ID)
	embedder.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestKnowledgeStore_Query_NeverMoreThanK(t *testing.T) {
	ctx := context.Background()
	for k := 1; k <= 3; k++ {
		embedder := new(MockEmbeddingClient)
		repo := new(MockSegmentRepository)
		store := NewKnowledgeStore(embedder, repo)

		embedder.On("GenerateEmbedding", ctx, "q").Return([]float32{1}, nil)
		repo.On("QueryNearest", ctx, []float32{1}, k).Return([]domain.RetrievedSegment{
			retrieved("A.pdf", 0), retrieved("A.pdf", 1), retrieved("B.pdf", 0), retrieved("C.pdf", 0),
		}, nil)

		hits, err := store.Query(ctx, "q", k)

		require.NoError(t, err)
		assert.LessOrEqual(t, len(hits), k)
	}
}

func TestKnowledgeStore_Query_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockSegmentRepository)
	store := NewKnowledgeStore(embedder, repo)

	embedder.On("GenerateEmbedding", ctx, "q").Return([]float32{1}, nil)
	repo.On("QueryNearest", ctx, []float32{1}, DefaultQueryLimit).Return([]domain.RetrievedSegment{}, nil)

	_, err := store.Query(ctx, "q", 0)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestKnowledgeStore_Query_EmptyText(t *testing.T) {
	store := NewKnowledgeStore(new(MockEmbeddingClient), new(MockSegmentRepository))

	_, err := store.Query(context.Background(), " ", 3)

	assert.Equal(t, domain.ErrEmptyQuery, err)
}

func TestKnowledgeStore_Query_EmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	store := NewKnowledgeStore(embedder, new(MockSegmentRepository))

	embedder.On("GenerateEmbedding", ctx, "q").Return(nil, domain.NewAdapterError(domain.KindTimeout, "embedding", context.DeadlineExceeded))

	_, err := store.Query(ctx, "q", 3)

	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))
}

func TestKnowledgeStore_Query_RepositoryFailure(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockSegmentRepository)
	store := NewKnowledgeStore(embedder, repo)

	embedder.On("GenerateEmbedding", ctx, "q").Return([]float32{1}, nil)
	repo.On("QueryNearest", ctx, []float32{1}, 3).Return(nil, errors.New("connection refused"))

	_, err := store.Query(ctx, "q", 3)

	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	assert.Contains(t, err.Error(), "failed to query segments")
}

func TestKnowledgeStore_Add(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockSegmentRepository)
	store := NewKnowledgeStore(embedder, repo)

	segments := []domain.Segment{
		domain.NewSegment("A.pdf", 0, "first"),
		domain.NewSegment("A.pdf", 1, "second"),
	}
	embedder.On("GenerateEmbedding", ctx, "first").Return([]float32{1, 0}, nil)
	embedder.On("GenerateEmbedding", ctx, "second").Return([]float32{0, 1}, nil)
	repo.On("AddSegments", ctx, mock.MatchedBy(func(in []EmbeddedSegment) bool {
		return len(in) == 2 && in[0].ID == "A.pdf_0" && in[1].Embedding[1] == 1
	})).Return(2, nil)

	err := store.Add(ctx, segments)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestKnowledgeStore_Add_InvalidSegment(t *testing.T) {
	store := NewKnowledgeStore(new(MockEmbeddingClient), new(MockSegmentRepository))

	err := store.Add(context.Background(), []domain.Segment{{ID: "wrong", SourceFile: "A.pdf", Index: 0, Text: "x"}})

	var domErr *domain.DomainError
	assert.ErrorAs(t, err, &domErr)
	assert.ErrorIs(t, err, domain.ErrInvalidSegment)
}

func TestKnowledgeStore_Add_EmbeddingFailureInsertsNothing(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockSegmentRepository)
	store := NewKnowledgeStore(embedder, repo)

	embedder.On("GenerateEmbedding", ctx, "first").Return(nil, errors.New("provider down"))

	err := store.Add(ctx, []domain.Segment{domain.NewSegment("A.pdf", 0, "first")})

	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	repo.AssertNotCalled(t, "AddSegments", mock.Anything, mock.Anything)
}

type fakeTxRunner struct {
	repo  SegmentRepository
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	f.calls++
	return fn(f)
}

func (f *fakeTxRunner) Segments() SegmentRepository {
	return f.repo
}

func TestKnowledgeStore_Add_UsesTransaction(t *testing.T) {
	mem := newMemorySegmentRepository()
	tx := &fakeTxRunner{repo: mem}
	store := NewKnowledgeStoreWithTx(letterEmbedder{}, new(MockSegmentRepository), tx)

	err := store.Add(context.Background(), []domain.Segment{domain.NewSegment("A.pdf", 0, "abc")})

	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	n, _ := mem.Count(context.Background())
	assert.Equal(t, 1, n)
}

func TestKnowledgeStore_Count(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSegmentRepository)
	store := NewKnowledgeStore(new(MockEmbeddingClient), repo)

	repo.On("Count", ctx).Return(7, nil).Once()
	repo.On("Count", ctx).Return(0, errors.New("down")).Once()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = store.Count(ctx)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
}

func TestKnowledgeStore_Sources(t *testing.T) {
	ctx := context.Background()
	mem := newMemorySegmentRepository()
	store := NewKnowledgeStore(letterEmbedder{}, mem)
	require.NoError(t, store.Add(ctx, BuildSegments("A.pdf", strings.Repeat("a", 3100), DefaultChunkConfig())))
	require.NoError(t, store.Add(ctx, BuildSegments("B.txt", "b", DefaultChunkConfig())))

	sources, err := store.Sources(ctx)

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A.pdf": 2, "B.txt": 1}, sources)
}
