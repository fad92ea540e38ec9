package ports

import (
	"context"
	"time"

	"SocialPulse/internal/domain"
)

// Source pulls top content from one upstream system. FetchTop returns an
// empty slice for "no data"; it errors only on genuine transport or auth
// failures.
type Source interface {
	Name() string
	FetchTop(ctx context.Context, topics []string, since time.Time, limitPerTopic int) ([]domain.Post, error)
	FetchComments(ctx context.Context, postID string, limit int) ([]domain.Comment, error)
}

// Summarizer turns a post plus its top comments into a structured summary.
// Malformed upstream output is mapped to a fallback Summary, never an error.
type Summarizer interface {
	Summarize(ctx context.Context, post domain.Post, topComments []domain.Comment) (domain.Summary, error)
}

// InsightDeriver produces second-stage insights from a summary.
type InsightDeriver interface {
	DeriveInsights(ctx context.Context, summary domain.Summary) (domain.Insight, error)
}

// Embedder returns one vector per input text, in input order. Empty or
// whitespace-only inputs map to empty vectors without a remote call.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// Extractor fetches a readable text body for a post URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Store persists pipeline outputs with idempotent upserts.
type Store interface {
	UpsertPosts(ctx context.Context, posts []domain.Post) (domain.UpsertResult, error)
	UpsertInsight(ctx context.Context, record domain.InsightRecord) (domain.UpsertResult, error)
	UpsertEmbedding(ctx context.Context, entityType, entityID string, vector []float64) (domain.UpsertResult, error)
}

// Notifier publishes a human-readable run digest to an external channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
