package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns    int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	MigrationsURL string `envconfig:"MIGRATIONS_URL" default:"file://migrations"`

	DocumentsDir  string `envconfig:"DOCUMENTS_DIR" default:"../knowledge_base"`
	IngestOnStart bool   `envconfig:"INGEST_ON_START" default:"true"`

	// Optional S3-compatible document source, used instead of DocumentsDir when set
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"medassist-documents"`
	S3Prefix    string `envconfig:"S3_PREFIX"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	EmbeddingAPIKey     string `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingBaseURL    string `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	GenerationAPIKey  string `envconfig:"GENERATION_API_KEY"`
	GenerationBaseURL string `envconfig:"GENERATION_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	GenerationModel   string `envconfig:"GENERATION_MODEL" default:"gemini-1.5-flash"`

	TavilyAPIKey        string  `envconfig:"TAVILY_API_KEY"`
	TavilyBaseURL       string  `envconfig:"TAVILY_BASE_URL" default:"https://api.tavily.com"`
	SearchRatePerSecond float64 `envconfig:"SEARCH_RATE_PER_SECOND" default:"1"`

	AssistantName string `envconfig:"ASSISTANT_NAME" default:"Pots-EDS-Experten"`
	ReplyLanguage string `envconfig:"REPLY_LANGUAGE" default:"Swedish"`
	TopicKeywords string `envconfig:"TOPIC_KEYWORDS" default:"EDS POTS MCAS"`

	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"24h"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MEDASSIST", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// HasTavily reports whether web search is configured. Without it answers
// degrade to local-only context.
func (c *Config) HasTavily() bool {
	return c.TavilyAPIKey != ""
}

func (c *Config) HasGeneration() bool {
	return c.GenerationAPIKey != ""
}

// HasEmbedding reports whether segment and query embeddings are configured.
// The generation key is never reused for the embedding endpoint.
func (c *Config) HasEmbedding() bool {
	return c.EmbeddingAPIKey != ""
}
