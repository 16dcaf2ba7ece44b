package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/medassist/internal/domain"
	"github.com/cloo-solutions/medassist/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTopicKeywords  = "EDS POTS MCAS"
	DefaultWebResultLimit = 5
	// DefaultDigestQuery asks for the latest research news.
	DefaultDigestQuery = "senaste viktiga forskningsrön och uppdateringar om EDS och POTS"
)

// Retriever returns the local segments nearest to a query.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]domain.RetrievedSegment, error)
}

// WebSearcher queries a live web search provider.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int, mode domain.SearchMode) ([]domain.WebResult, error)
}

// AnswerGenerator produces text from a prompt with a single model call.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Stage is a step of the answer pipeline.
type Stage string

const (
	StageRetrieving Stage = "retrieving"
	StageComposing  Stage = "composing"
	StageGenerating Stage = "generating"
)

// StageObserver is told when the pipeline enters a new stage. May be nil.
type StageObserver func(Stage)

// Analysis is the outcome of answering one question.
type Analysis struct {
	Query      string
	Answer     string
	Sources    []string
	WebResults []domain.WebResult
	Warnings   []string
	Failed     bool
}

// Digest is the outcome of the latest-updates flow.
type Digest struct {
	Text       string
	WebResults []domain.WebResult
	Warnings   []string
	Failed     bool
}

type AssistantConfig struct {
	TopicKeywords string
	LocalResults  int
	WebResults    int
	DigestQuery   string
}

func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{
		TopicKeywords: DefaultTopicKeywords,
		LocalResults:  DefaultQueryLimit,
		WebResults:    DefaultWebResultLimit,
		DigestQuery:   DefaultDigestQuery,
	}
}

// Assistant orchestrates retrieval, web search, prompting and generation.
// External failures never escape: they become warnings or an error answer.
type Assistant struct {
	retriever Retriever
	searcher  WebSearcher
	generator AnswerGenerator
	composer  *PromptComposer
	answerLog AnswerLogRepository
	cfg       AssistantConfig
}

func NewAssistant(retriever Retriever, searcher WebSearcher, generator AnswerGenerator, composer *PromptComposer) *Assistant {
	return NewAssistantWithConfig(retriever, searcher, generator, composer, nil, DefaultAssistantConfig())
}

func NewAssistantWithConfig(
	retriever Retriever,
	searcher WebSearcher,
	generator AnswerGenerator,
	composer *PromptComposer,
	answerLog AnswerLogRepository,
	cfg AssistantConfig,
) *Assistant {
	def := DefaultAssistantConfig()
	if cfg.LocalResults <= 0 {
		cfg.LocalResults = def.LocalResults
	}
	if cfg.WebResults <= 0 {
		cfg.WebResults = def.WebResults
	}
	if cfg.DigestQuery == "" {
		cfg.DigestQuery = def.DigestQuery
	}
	if composer == nil {
		composer = NewPromptComposer(DefaultPromptConfig())
	}
	return &Assistant{
		retriever: retriever,
		searcher:  searcher,
		generator: generator,
		composer:  composer,
		answerLog: answerLog,
		cfg:       cfg,
	}
}

// Analyze answers query from local segments and live web results, which are
// fetched concurrently. The only returned error is domain.ErrEmptyQuery.
func (a *Assistant) Analyze(ctx context.Context, query string, observe StageObserver) (*Analysis, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "assistant.analyze", telemetry.SpanAttributes{
		SessionID:  SessionIDFromContext(ctx),
		SearchMode: string(domain.SearchModeGeneral),
		Operation:  "analyze",
	})
	defer span.End()

	notify(observe, StageRetrieving)

	var (
		segments     []domain.RetrievedSegment
		webResults   []domain.WebResult
		retrievalErr error
		searchErr    error
	)
	// Each lookup degrades on its own; neither cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		segments, retrievalErr = a.retriever.Query(ctx, query, a.cfg.LocalResults)
		return nil
	})
	g.Go(func() error {
		webResults, searchErr = a.searcher.Search(ctx, a.webQuery(query), a.cfg.WebResults, domain.SearchModeGeneral)
		return nil
	})
	g.Wait()

	analysis := &Analysis{Query: query}
	if retrievalErr != nil {
		segments = nil
		analysis.warn(span, fmt.Sprintf("could not search the local knowledge base: %v", retrievalErr))
	}
	if searchErr != nil {
		webResults = nil
		analysis.warn(span, fmt.Sprintf("could not perform web search: %v", searchErr))
	}
	analysis.Sources = domain.UniqueSources(segments)
	analysis.WebResults = webResults

	notify(observe, StageComposing)
	prompt := a.composer.ComposeAnswerPrompt(PromptInput{
		Query:      query,
		Segments:   segments,
		WebResults: webResults,
	})

	notify(observe, StageGenerating)
	answer, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("assistant: generation failed: %v", err)
		span.SetError(err)
		telemetry.CaptureError(ctx, err)
		analysis.Answer = fmt.Sprintf(GenerationErrorTemplate, err.Error())
		analysis.Failed = true
	} else {
		analysis.Answer = a.composer.EnsureDisclaimer(answer)
	}

	span.SetData("segments", len(segments))
	span.SetData("web_results", len(webResults))

	a.recordAnswer(ctx, AnswerLogEntry{
		SessionID:      SessionIDFromContext(ctx),
		Kind:           AnswerKindAnalysis,
		Query:          query,
		Sources:        analysis.Sources,
		SegmentCount:   len(segments),
		WebResultCount: len(webResults),
		WebURLs:        webURLs(webResults),
		Warnings:       analysis.Warnings,
		Failed:         analysis.Failed,
		DurationMs:     int(time.Since(start).Milliseconds()),
	})

	return analysis, nil
}

// Digest summarizes the latest news in the domain. It uses the news search
// profile and no local retrieval.
func (a *Assistant) Digest(ctx context.Context) (*Digest, error) {
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "assistant.digest", telemetry.SpanAttributes{
		SearchMode: string(domain.SearchModeNews),
		Operation:  "digest",
	})
	defer span.End()

	digest := &Digest{}
	results, err := a.searcher.Search(ctx, a.cfg.DigestQuery, a.cfg.WebResults, domain.SearchModeNews)
	if err != nil {
		results = nil
		msg := fmt.Sprintf("could not fetch the latest news: %v", err)
		log.Printf("warning: assistant: %s", msg)
		span.SetWarning(msg)
		digest.Warnings = append(digest.Warnings, msg)
	}
	digest.WebResults = results

	text, err := a.generator.Generate(ctx, a.composer.ComposeDigestPrompt(results))
	if err != nil {
		log.Printf("assistant: digest generation failed: %v", err)
		span.SetError(err)
		telemetry.CaptureError(ctx, err)
		digest.Text = fmt.Sprintf(GenerationErrorTemplate, err.Error())
		digest.Failed = true
	} else {
		digest.Text = a.composer.EnsureDisclaimer(text)
	}

	a.recordAnswer(ctx, AnswerLogEntry{
		Kind:           AnswerKindDigest,
		Query:          a.cfg.DigestQuery,
		WebResultCount: len(results),
		WebURLs:        webURLs(results),
		Warnings:       digest.Warnings,
		Failed:         digest.Failed,
		DurationMs:     int(time.Since(start).Milliseconds()),
	})

	return digest, nil
}

func (a *Assistant) webQuery(query string) string {
	q := "medical research " + query
	if kw := strings.TrimSpace(a.cfg.TopicKeywords); kw != "" {
		q += " " + kw
	}
	return q
}

func (a *Assistant) recordAnswer(ctx context.Context, entry AnswerLogEntry) {
	if a.answerLog == nil {
		return
	}
	if _, err := a.answerLog.CreateAnswerLog(ctx, entry); err != nil {
		log.Printf("warning: assistant: failed to record answer log: %v", err)
	}
}

func (an *Analysis) warn(span *telemetry.Span, msg string) {
	log.Printf("warning: assistant: %s", msg)
	span.SetWarning(msg)
	an.Warnings = append(an.Warnings, msg)
}

func notify(observe StageObserver, stage Stage) {
	if observe != nil {
		observe(stage)
	}
}

func webURLs(results []domain.WebResult) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	return urls
}

type sessionIDKey struct{}

// WithSessionID tags ctx with the session a call belongs to.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the session tagged by WithSessionID, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
