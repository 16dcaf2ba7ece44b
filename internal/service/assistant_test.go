package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloo-solutions/medassist/internal/domain"
	"github.com/cloo-solutions/medassist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type assistantMocks struct {
	retriever *MockRetriever
	searcher  *MockWebSearcher
	generator *MockAnswerGenerator
	answerLog *MockAnswerLogRepository
}

func newTestAssistant() (*Assistant, assistantMocks) {
	m := assistantMocks{
		retriever: new(MockRetriever),
		searcher:  new(MockWebSearcher),
		generator: new(MockAnswerGenerator),
		answerLog: new(MockAnswerLogRepository),
	}
	a := NewAssistantWithConfig(m.retriever, m.searcher, m.generator,
		NewPromptComposer(DefaultPromptConfig()), m.answerLog, DefaultAssistantConfig())
	return a, m
}

var sampleWeb = []domain.WebResult{
	{URL: "https://example.org/pots", Title: "POTS", PublishedDate: "2026-10-01", Content: "news"},
}

func TestAssistant_Analyze_Success(t *testing.T) {
	a, m := newTestAssistant()

	m.retriever.On("Query", mock.Anything, "What is POTS?", 3).Return([]domain.RetrievedSegment{
		retrieved("B.pdf", 2), retrieved("A.pdf", 0), retrieved("A.pdf", 1),
	}, nil)
	m.searcher.On("Search", mock.Anything, "medical research What is POTS? EDS POTS MCAS", 5, domain.SearchModeGeneral).
		Return(sampleWeb, nil)
	m.generator.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "What is POTS?") && strings.Contains(p, "https://example.org/pots")
	})).Return("POTS is a syndrome.", nil)
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.MatchedBy(func(e AnswerLogEntry) bool {
		return e.Kind == AnswerKindAnalysis && e.SegmentCount == 3 && e.WebResultCount == 1 && !e.Failed
	})).Return("log-1", nil)

	analysis, err := a.Analyze(context.Background(), "  What is POTS? ", nil)

	require.NoError(t, err)
	assert.Equal(t, "What is POTS?", analysis.Query)
	assert.Equal(t, []string{"A.pdf", "B.pdf"}, analysis.Sources)
	assert.Equal(t, sampleWeb, analysis.WebResults)
	assert.Empty(t, analysis.Warnings)
	assert.False(t, analysis.Failed)
	assert.True(t, strings.HasPrefix(analysis.Answer, "POTS is a syndrome."))
	assert.True(t, strings.HasSuffix(analysis.Answer, DefaultDisclaimer))
	m.retriever.AssertExpectations(t)
	m.searcher.AssertExpectations(t)
	m.generator.AssertExpectations(t)
	m.answerLog.AssertExpectations(t)
}

func TestAssistant_Analyze_EmptyQuery(t *testing.T) {
	a, m := newTestAssistant()

	_, err := a.Analyze(context.Background(), "   ", nil)

	assert.Equal(t, domain.ErrEmptyQuery, err)
	m.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAssistant_Analyze_SearchFailureStillAnswers(t *testing.T) {
	a, m := newTestAssistant()

	m.retriever.On("Query", mock.Anything, "q", 3).Return([]domain.RetrievedSegment{retrieved("A.pdf", 0)}, nil)
	m.searcher.On("Search", mock.Anything, mock.Anything, 5, domain.SearchModeGeneral).
		Return(nil, domain.NewAdapterError(domain.KindUnavailable, "search", errors.New("status 429")))
	m.generator.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, noWebContext)
	})).Return("answer", nil)
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.Anything).Return("id", nil)

	analysis, err := a.Analyze(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.Empty(t, analysis.WebResults)
	require.Len(t, analysis.Warnings, 1)
	assert.Contains(t, analysis.Warnings[0], "web search")
	assert.NotEmpty(t, analysis.Answer)
	assert.False(t, analysis.Failed)
	assert.Equal(t, []string{"A.pdf"}, analysis.Sources)
}

func TestAssistant_Analyze_RetrievalFailureFallsBackToWeb(t *testing.T) {
	a, m := newTestAssistant()

	m.retriever.On("Query", mock.Anything, "q", 3).
		Return(nil, domain.NewAdapterError(domain.KindUnavailable, "knowledge query", errors.New("db down")))
	m.searcher.On("Search", mock.Anything, mock.Anything, 5, domain.SearchModeGeneral).Return(sampleWeb, nil)
	m.generator.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, noLocalContext)
	})).Return("web only answer", nil)
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.Anything).Return("id", nil)

	analysis, err := a.Analyze(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.Empty(t, analysis.Sources)
	assert.Len(t, analysis.WebResults, 1)
	require.Len(t, analysis.Warnings, 1)
	assert.Contains(t, analysis.Warnings[0], "local knowledge base")
}

func TestAssistant_Analyze_GenerationFailureBecomesAnswer(t *testing.T) {
	a, m := newTestAssistant()
	genErr := domain.NewAdapterError(domain.KindUnavailable, "generate", errors.New("api key not configured"))

	m.retriever.On("Query", mock.Anything, "q", 3).Return([]domain.RetrievedSegment{}, nil)
	m.searcher.On("Search", mock.Anything, mock.Anything, 5, domain.SearchModeGeneral).Return([]domain.WebResult{}, nil)
	m.generator.On("Generate", mock.Anything, mock.Anything).Return("", genErr)
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.MatchedBy(func(e AnswerLogEntry) bool {
		return e.Failed
	})).Return("id", nil)

	analysis, err := a.Analyze(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.True(t, analysis.Failed)
	assert.Equal(t, "Ett fel uppstod när svaret skulle genereras: "+genErr.Error(), analysis.Answer)
	m.answerLog.AssertExpectations(t)
}

func TestAssistant_Analyze_GenerationFailureIsCaptured(t *testing.T) {
	a, m := newTestAssistant()
	ctx, rec := testutil.NewSentryContext(t)

	m.retriever.On("Query", mock.Anything, "q", 3).Return(nil, errors.New("store down"))
	m.searcher.On("Search", mock.Anything, mock.Anything, 5, domain.SearchModeGeneral).Return(nil, errors.New("no key"))
	m.generator.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("model overloaded"))
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.Anything).Return("id", nil)

	analysis, err := a.Analyze(ctx, "q", nil)

	require.NoError(t, err)
	assert.True(t, analysis.Failed)
	assert.Len(t, analysis.Warnings, 2)
	assert.Equal(t, 1, rec.ErrorCount())
	assert.Contains(t, rec.ErrorMessages(), "model overloaded")
}

func TestAssistant_Analyze_DegradedLookupsAreNotCaptured(t *testing.T) {
	a, m := newTestAssistant()
	ctx, rec := testutil.NewSentryContext(t)

	retrieved := make(chan struct{})
	m.retriever.On("Query", mock.Anything, "q", 3).Return(nil, errors.New("store down")).
		Run(func(mock.Arguments) { close(retrieved) })
	m.searcher.On("Search", mock.Anything, mock.Anything, 5, domain.SearchModeGeneral).Return(sampleWeb, nil).
		Run(func(args mock.Arguments) {
			<-retrieved
			assert.NoError(t, args.Get(0).(context.Context).Err())
		})
	m.generator.On("Generate", mock.Anything, mock.Anything).Return("answer", nil)
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.Anything).Return("id", nil)

	analysis, err := a.Analyze(ctx, "q", nil)

	require.NoError(t, err)
	assert.False(t, analysis.Failed)
	assert.Equal(t, sampleWeb, analysis.WebResults)
	assert.Equal(t, 0, rec.ErrorCount())
}

func TestAssistant_Analyze_AnswerLogFailureIsIgnored(t *testing.T) {
	a, m := newTestAssistant()

	m.retriever.On("Query", mock.Anything, "q", 3).Return([]domain.RetrievedSegment{}, nil)
	m.searcher.On("Search", mock.Anything, mock.Anything, 5, domain.SearchModeGeneral).Return([]domain.WebResult{}, nil)
	m.generator.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.Anything).Return("", errors.New("insert failed"))

	analysis, err := a.Analyze(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.False(t, analysis.Failed)
}

func TestAssistant_Analyze_ReportsStagesInOrder(t *testing.T) {
	a, m := newTestAssistant()

	m.retriever.On("Query", mock.Anything, "q", 3).Return([]domain.RetrievedSegment{}, nil)
	m.searcher.On("Search", mock.Anything, mock.Anything, 5, domain.SearchModeGeneral).Return([]domain.WebResult{}, nil)
	m.generator.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.Anything).Return("id", nil)

	var stages []Stage
	_, err := a.Analyze(context.Background(), "q", func(s Stage) { stages = append(stages, s) })

	require.NoError(t, err)
	assert.Equal(t, []Stage{StageRetrieving, StageComposing, StageGenerating}, stages)
}

func TestAssistant_Analyze_WithoutAnswerLog(t *testing.T) {
	retriever := new(MockRetriever)
	searcher := new(MockWebSearcher)
	generator := new(MockAnswerGenerator)
	a := NewAssistant(retriever, searcher, generator, nil)

	retriever.On("Query", mock.Anything, "q", 3).Return([]domain.RetrievedSegment{}, nil)
	searcher.On("Search", mock.Anything, mock.Anything, 5, domain.SearchModeGeneral).Return([]domain.WebResult{}, nil)
	generator.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)

	analysis, err := a.Analyze(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.Contains(t, analysis.Answer, DefaultDisclaimer)
}

func TestAssistant_Digest_Success(t *testing.T) {
	a, m := newTestAssistant()

	m.searcher.On("Search", mock.Anything, DefaultDigestQuery, 5, domain.SearchModeNews).Return(sampleWeb, nil)
	m.generator.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Published: 2026-10-01")
	})).Return("Latest: new POTS guideline.", nil)
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.MatchedBy(func(e AnswerLogEntry) bool {
		return e.Kind == AnswerKindDigest
	})).Return("id", nil)

	digest, err := a.Digest(context.Background())

	require.NoError(t, err)
	assert.False(t, digest.Failed)
	assert.Equal(t, sampleWeb, digest.WebResults)
	assert.True(t, strings.HasSuffix(digest.Text, DefaultDisclaimer))
	m.retriever.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssistant_Digest_SearchAndGenerationFailure(t *testing.T) {
	a, m := newTestAssistant()

	m.searcher.On("Search", mock.Anything, DefaultDigestQuery, 5, domain.SearchModeNews).
		Return(nil, domain.NewAdapterError(domain.KindUnavailable, "search", errors.New("no key")))
	m.generator.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))
	m.answerLog.On("CreateAnswerLog", mock.Anything, mock.Anything).Return("id", nil)

	ctx, rec := testutil.NewSentryContext(t)

	digest, err := a.Digest(ctx)

	require.NoError(t, err)
	assert.True(t, digest.Failed)
	assert.Len(t, digest.Warnings, 1)
	assert.Contains(t, digest.Text, "quota exceeded")
	assert.Equal(t, 1, rec.ErrorCount())
	assert.Contains(t, rec.ErrorMessages(), "quota exceeded")
}
