package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"SocialPulse/internal/config"
	"SocialPulse/internal/infrastructure/content"
	"SocialPulse/internal/infrastructure/llm"
	"SocialPulse/internal/infrastructure/notify"
	"SocialPulse/internal/infrastructure/source"
	"SocialPulse/internal/infrastructure/storage"
	"SocialPulse/internal/metrics"
	"SocialPulse/internal/ports"
	"SocialPulse/internal/retry"
	"SocialPulse/internal/usecase"
)

// Application wires configuration to the pipeline and owns process-scoped
// resources.
type Application struct {
	cfg      config.Config
	db       *sql.DB
	pipeline *usecase.Pipeline
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New builds a runnable application instance. The configuration is read
// once here and passed into every collaborator; nothing consults the
// environment afterwards.
func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Fetch.HTTPTimeout()}

	registry := source.NewRegistry()
	if cfg.Sources.Reddit.Enabled {
		registry.Register(source.NewReddit(cfg.Sources.Reddit, httpClient))
	}
	if cfg.Sources.HackerNews.Enabled {
		registry.Register(source.NewHackerNews(httpClient))
	}
	if cfg.Sources.ProductHunt.Enabled {
		registry.Register(source.NewProductHunt(cfg.Sources.ProductHunt, httpClient))
	}

	llmClient := llm.NewClient(cfg.LLM, cfg.Fetch.HTTPTimeout())

	var notifier ports.Notifier
	if cfg.Notifications.Slack.BotToken != "" {
		notifier = notify.NewSlack(cfg.Notifications.Slack.BotToken, cfg.Notifications.Slack.Channel)
	}

	m := metrics.New()

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:    registry.All(),
		Summarizer: llm.NewSummarizer(llmClient, cfg.LLM.SummarizerModel),
		Insights:   llm.NewInsightDeriver(llmClient, cfg.LLM.InsightModel),
		Embedder:   llm.NewEmbedder(llmClient, cfg.LLM.EmbeddingsModel, cfg.LLM.EmbeddingsDim),
		Extractor:  content.NewPageExtractor(httpClient),
		Store:      storage.NewPostgresStore(db),
		Notifier:   notifier,
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Retry.BaseDelayMillis) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.Retry.MaxDelayMillis) * time.Millisecond,
		},
		Options: usecase.Options{
			Topics:        cfg.Sources.Reddit.Subreddits,
			LookbackDays:  cfg.Fetch.LookbackDays,
			MinComments:   cfg.Fetch.MinComments,
			TopN:          cfg.Fetch.TopN,
			TopKComments:  cfg.Fetch.TopKComments,
			LimitPerTopic: cfg.Fetch.LimitPerTopic,
			ModelName:     cfg.LLM.InsightModel,
			PromptVersion: cfg.LLM.PromptVersion,
		},
		Logger:  logger.With("component", "pipeline"),
		Metrics: m,
	})

	return &Application{cfg: cfg, db: db, pipeline: pipeline, metrics: m, logger: logger}, nil
}

// Run performs a single full pipeline pass. Partial per-item failures are
// reported through logs and metrics, not as an error.
func (a *Application) Run(ctx context.Context) error {
	report, err := a.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	if err := a.metrics.Push(a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.JobName); err != nil {
		a.logger.Warn("metrics push failed", "error", err)
	}

	if len(report.Errors) > 0 {
		a.logger.Warn("run completed with isolated failures", "count", len(report.Errors))
	}
	return nil
}

// Close releases process-scoped resources.
func (a *Application) Close() error {
	return a.db.Close()
}
