package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/medassist/internal/domain"
	"github.com/cloo-solutions/medassist/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// SegmentRepository persists document segments and their embeddings.
type SegmentRepository struct {
	db dbtx
}

func NewSegmentRepository(pool *pgxpool.Pool) *SegmentRepository {
	return &SegmentRepository{db: pool}
}

func NewSegmentRepositoryWithTx(tx dbtx) *SegmentRepository {
	return &SegmentRepository{db: tx}
}

// AddSegments inserts segments in one batch. Segments whose ID already exists
// are left untouched. Returns the number of inserted rows.
func (r *SegmentRepository) AddSegments(ctx context.Context, segments []service.EmbeddedSegment) (int, error) {
	if len(segments) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range segments {
		batch.Queue(
			`INSERT INTO segments (id, source_file, segment_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			s.ID,
			s.SourceFile,
			s.Index,
			s.Text,
			pgvector.NewVector(s.Embedding),
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for _, s := range segments {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert segment %s: %w", s.ID, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// QueryNearest returns the k segments closest to embedding by cosine distance.
func (r *SegmentRepository) QueryNearest(ctx context.Context, embedding []float32, k int) ([]domain.RetrievedSegment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, source_file, segment_index, content, embedding <=> $1 AS distance
		 FROM segments
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]domain.RetrievedSegment, 0, k)
	for rows.Next() {
		var (
			hit      domain.RetrievedSegment
			distance float64
		)
		if err := rows.Scan(&hit.ID, &hit.SourceFile, &hit.Index, &hit.Text, &distance); err != nil {
			return nil, err
		}
		hit.Distance = float32(distance)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (r *SegmentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM segments`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Sources lists the distinct source files with their segment counts.
func (r *SegmentRepository) Sources(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT source_file, COUNT(*) FROM segments GROUP BY source_file`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		sources[name] = n
	}
	return sources, rows.Err()
}
