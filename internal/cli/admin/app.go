package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/medassist/internal/config"
	"github.com/cloo-solutions/medassist/internal/database"
	"github.com/cloo-solutions/medassist/internal/document"
	"github.com/cloo-solutions/medassist/internal/openai"
	"github.com/cloo-solutions/medassist/internal/repository"
	"github.com/cloo-solutions/medassist/internal/search"
	"github.com/cloo-solutions/medassist/internal/service"
	"github.com/cloo-solutions/medassist/internal/storage"
	"github.com/cloo-solutions/medassist/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
)

// app holds the wired components shared by the daemon commands.
type app struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	store     *service.KnowledgeStore
	ingestor  *service.Ingestor
	assistant *service.Assistant
}

type appOptions struct {
	migrate bool
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("connected to database")

	if opts.migrate {
		if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsURL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	source, err := newDocumentSource(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	if !cfg.HasEmbedding() {
		log.Println("warning: no embedding API key configured; ingestion will skip every file and answers will use web results only")
	}
	if !cfg.HasGeneration() {
		log.Println("warning: no generation API key configured; answers will report the missing key")
	}
	if !cfg.HasTavily() {
		log.Println("warning: no Tavily API key configured; answers will use local documents only")
	}

	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.EmbeddingAPIKey,
		BaseURL:             cfg.EmbeddingBaseURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
	generator := openai.NewGenerator(openai.GeneratorConfig{
		APIKey:  cfg.GenerationAPIKey,
		BaseURL: cfg.GenerationBaseURL,
		Model:   cfg.GenerationModel,
	})
	searcher := search.NewClient(search.Config{
		APIKey:        cfg.TavilyAPIKey,
		BaseURL:       cfg.TavilyBaseURL,
		RatePerSecond: cfg.SearchRatePerSecond,
	})

	txRunner := repository.NewTxRunner(pool)
	store := service.NewKnowledgeStoreWithTx(embedder, repository.NewSegmentRepository(pool), txRunner)
	ingestor := service.NewIngestorWithLock(source, document.Extract, store, txRunner)

	composer := service.NewPromptComposer(service.PromptConfig{
		AssistantName: cfg.AssistantName,
		ReplyLanguage: cfg.ReplyLanguage,
	})
	assistant := service.NewAssistantWithConfig(
		store,
		searcher,
		generator,
		composer,
		repository.NewAnswerLogRepository(pool),
		service.AssistantConfig{TopicKeywords: cfg.TopicKeywords},
	)

	return &app{
		cfg:       cfg,
		pool:      pool,
		store:     store,
		ingestor:  ingestor,
		assistant: assistant,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}

// newDocumentSource prefers the S3 bucket when one is configured.
func newDocumentSource(ctx context.Context, cfg *config.Config) (service.DocumentSource, error) {
	if !cfg.HasS3() {
		return document.NewDirSource(cfg.DocumentsDir), nil
	}

	source, err := storage.NewS3Source(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		Prefix:          cfg.S3Prefix,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := source.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
	return source, nil
}

// initTelemetry starts Sentry when a DSN is configured. The returned function
// flushes pending events and is always safe to call.
func initTelemetry(cfg *config.Config) func() {
	if cfg.SentryDSN == "" {
		return func() {}
	}

	// 10% sampling in production, everything in development
	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return func() {}
	}
	return shutdown
}
