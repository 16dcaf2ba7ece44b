package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/cloo-solutions/medassist/internal/document"
	"github.com/cloo-solutions/medassist/internal/domain"
	"github.com/cloo-solutions/medassist/internal/telemetry"
)

// DocumentSource lists and reads knowledge-base documents.
type DocumentSource interface {
	Name() string
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// TextExtractor returns the full text of a document.
type TextExtractor func(name string, data []byte) (string, error)

// SegmentStore is the part of the knowledge store used by ingestion.
type SegmentStore interface {
	Add(ctx context.Context, segments []domain.Segment) error
	Count(ctx context.Context) (int, error)
}

// FileWarning records a document skipped during ingestion.
type FileWarning struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Source   string        `json:"source"`
	Skipped  bool          `json:"skipped"`
	Files    int           `json:"files"`
	Segments int           `json:"segments"`
	Warnings []FileWarning `json:"warnings,omitempty"`
}

// Ingestor loads documents into the knowledge store. It only runs against an
// empty store, so repeated runs are no-ops.
type Ingestor struct {
	source   DocumentSource
	extract  TextExtractor
	store    SegmentStore
	locker   IngestionLocker
	chunkCfg ChunkConfig
}

func NewIngestor(source DocumentSource, extract TextExtractor, store SegmentStore) *Ingestor {
	return NewIngestorWithLock(source, extract, store, nil)
}

// NewIngestorWithLock guards each run with locker so that concurrent first
// runs cannot both see an empty store.
func NewIngestorWithLock(source DocumentSource, extract TextExtractor, store SegmentStore, locker IngestionLocker) *Ingestor {
	if extract == nil {
		extract = document.Extract
	}
	return &Ingestor{
		source:   source,
		extract:  extract,
		store:    store,
		locker:   locker,
		chunkCfg: DefaultChunkConfig(),
	}
}

// Ingest indexes every supported document of the source, in lexical order,
// unless the store already holds segments. A failing file is skipped and
// reported as a warning; only store or source failures abort the run.
func (i *Ingestor) Ingest(ctx context.Context) (*IngestReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "ingestor.ingest", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	var report *IngestReport
	run := func(ctx context.Context) error {
		r, err := i.ingest(ctx)
		report = r
		return err
	}

	var err error
	if i.locker != nil {
		err = i.locker.WithIngestionLock(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		span.SetError(err)
		telemetry.CaptureError(ctx, err)
		return nil, err
	}

	span.SetData("files", report.Files)
	span.SetData("segments", report.Segments)
	return report, nil
}

func (i *Ingestor) ingest(ctx context.Context) (*IngestReport, error) {
	report := &IngestReport{Source: i.source.Name()}

	count, err := i.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check knowledge store: %w", err)
	}
	if count > 0 {
		log.Printf("ingest: knowledge store holds %d segments, skipping", count)
		report.Skipped = true
		return report, nil
	}

	names, err := i.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		if !document.IsSupported(name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := i.ingestFile(ctx, name)
		if err != nil {
			log.Printf("warning: ingest: skipping %s: %v", name, err)
			report.Warnings = append(report.Warnings, FileWarning{File: name, Reason: err.Error()})
			continue
		}
		report.Files++
		report.Segments += n
	}

	log.Printf("ingest: indexed %d segments from %d files in %s (%d skipped)",
		report.Segments, report.Files, report.Source, len(report.Warnings))
	return report, nil
}

// ingestFile indexes one document inside its own span, tagged with the file
// name so skipped files can be traced.
func (i *Ingestor) ingestFile(ctx context.Context, name string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "ingestor.file", telemetry.SpanAttributes{
		SourceFile: name,
		Operation:  "ingest_file",
	})
	defer span.End()

	n, err := i.indexFile(ctx, name)
	if err != nil {
		span.SetWarning(fmt.Sprintf("skipped %s: %v", name, err))
		return 0, err
	}
	span.SetData("segments", n)
	return n, nil
}

func (i *Ingestor) indexFile(ctx context.Context, name string) (int, error) {
	data, err := i.source.Read(ctx, name)
	if err != nil {
		return 0, err
	}

	text, err := i.extract(name, data)
	if err != nil {
		return 0, fmt.Errorf("failed to extract text: %w", err)
	}

	segments := BuildSegments(name, text, i.chunkCfg)
	if len(segments) == 0 {
		return 0, document.ErrNoText
	}

	if err := i.store.Add(ctx, segments); err != nil {
		return 0, err
	}
	return len(segments), nil
}
