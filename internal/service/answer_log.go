package service

import "context"

// AnswerKind distinguishes logged answers.
type AnswerKind string

const (
	AnswerKindAnalysis AnswerKind = "analysis"
	AnswerKindDigest   AnswerKind = "digest"
)

// AnswerLogEntry captures one generated answer for later review.
type AnswerLogEntry struct {
	SessionID      string
	Kind           AnswerKind
	Query          string
	Sources        []string
	SegmentCount   int
	WebResultCount int
	WebURLs        []string
	Warnings       []string
	Failed         bool
	DurationMs     int
}

// AnswerLogRepository persists answer logs.
type AnswerLogRepository interface {
	CreateAnswerLog(ctx context.Context, entry AnswerLogEntry) (string, error)
}
