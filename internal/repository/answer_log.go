package repository

import (
	"context"
	"encoding/json"

	"github.com/cloo-solutions/medassist/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerLogRepository stores generated answers for later review.
type AnswerLogRepository struct {
	pool *pgxpool.Pool
}

func NewAnswerLogRepository(pool *pgxpool.Pool) *AnswerLogRepository {
	return &AnswerLogRepository{pool: pool}
}

func (r *AnswerLogRepository) CreateAnswerLog(ctx context.Context, entry service.AnswerLogEntry) (string, error) {
	sources := entry.Sources
	if sources == nil {
		sources = []string{}
	}
	webURLs := entry.WebURLs
	if webURLs == nil {
		webURLs = []string{}
	}
	warnings := entry.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	sourcesJSON, _ := json.Marshal(sources)
	webJSON, _ := json.Marshal(webURLs)
	warningsJSON, _ := json.Marshal(warnings)

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO answer_logs (session_id, kind, query, sources, web_urls, warnings, segment_count, web_result_count, failed, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		nullableString(entry.SessionID),
		string(entry.Kind),
		entry.Query,
		sourcesJSON,
		webJSON,
		warningsJSON,
		entry.SegmentCount,
		entry.WebResultCount,
		entry.Failed,
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
