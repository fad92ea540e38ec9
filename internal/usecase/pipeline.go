package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"SocialPulse/internal/dedupe"
	"SocialPulse/internal/domain"
	"SocialPulse/internal/metrics"
	"SocialPulse/internal/ports"
	"SocialPulse/internal/rank"
	"SocialPulse/internal/retry"
	"SocialPulse/internal/sanitize"
)

// Options bounds one pipeline run. All values come from configuration read
// at process start.
type Options struct {
	Topics        []string
	LookbackDays  int
	MinComments   int
	TopN          int
	TopKComments  int
	LimitPerTopic int
	ModelName     string
	PromptVersion string
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources    []ports.Source
	Summarizer ports.Summarizer
	Insights   ports.InsightDeriver
	Embedder   ports.Embedder
	Extractor  ports.Extractor
	Store      ports.Store
	Notifier   ports.Notifier
	Retry      retry.Policy
	Options    Options
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Pipeline runs one fetch → dedupe → rank → select → enrich → persist pass.
// A failure in one source, item, or artifact is logged and isolated; it
// never aborts the run.
type Pipeline struct {
	sources    []ports.Source
	summarizer ports.Summarizer
	insights   ports.InsightDeriver
	embedder   ports.Embedder
	extractor  ports.Extractor
	store      ports.Store
	notifier   ports.Notifier
	retry      retry.Policy
	opts       Options
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Report summarizes what one run accomplished.
type Report struct {
	Fetched      int
	Deduplicated int
	Selected     int
	Summarized   int
	Insights     int
	Embedded     int
	Persisted    domain.UpsertResult
	Errors       []string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sources:    deps.Sources,
		summarizer: deps.Summarizer,
		insights:   deps.Insights,
		embedder:   deps.Embedder,
		extractor:  deps.Extractor,
		store:      deps.Store,
		notifier:   deps.Notifier,
		retry:      deps.Retry,
		opts:       deps.Options,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

type embedTarget struct {
	entityType string
	entityID   string
}

// Run executes the full pipeline once. Partial external failures are
// recorded in the report; only contract violations return an error.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	var report Report

	since := time.Now().UTC().AddDate(0, 0, -max(1, p.opts.LookbackDays))

	fetched := p.fetchStage(ctx, since, &report)
	report.Fetched = len(fetched)

	deduped, err := dedupe.Posts(fetched)
	if err != nil {
		return report, fmt.Errorf("dedupe: %w", err)
	}
	report.Deduplicated = len(deduped)

	ranked, err := rank.Posts(deduped)
	if err != nil {
		return report, fmt.Errorf("rank: %w", err)
	}

	selected := ranked
	if len(selected) > p.opts.TopN {
		selected = selected[:p.opts.TopN]
	}
	report.Selected = len(selected)
	if p.metrics != nil {
		p.metrics.PostsSelected.Add(float64(len(selected)))
	}

	summaries, insights := p.enrichStage(ctx, selected, &report)
	report.Summarized = len(summaries)
	report.Insights = len(insights)

	texts, targets := buildEmbeddingBatch(selected, summaries, insights)
	vectors := p.embedStage(ctx, texts, &report)

	p.persistStage(ctx, selected, summaries, insights, targets, vectors, &report)

	p.logger.Info("pipeline finished",
		"fetched", report.Fetched,
		"deduplicated", report.Deduplicated,
		"selected", report.Selected,
		"summarized", report.Summarized,
		"insights", report.Insights,
		"embedded", report.Embedded,
		"inserted", report.Persisted.Inserted,
		"updated", report.Persisted.Updated,
		"errors", len(report.Errors),
	)

	p.notify(ctx, report)

	return report, nil
}

// fetchStage pulls from every source; a source failure yields zero items
// from that source and the run continues.
func (p *Pipeline) fetchStage(ctx context.Context, since time.Time, report *Report) []domain.Post {
	all := make([]domain.Post, 0)
	for _, src := range p.sources {
		posts, err := retry.Do(ctx, p.retry, func() ([]domain.Post, error) {
			return src.FetchTop(ctx, p.opts.Topics, since, p.opts.LimitPerTopic)
		})
		if err != nil {
			p.recordError(report, "fetch", fmt.Sprintf("source %s: %v", src.Name(), err))
			continue
		}
		if p.metrics != nil {
			p.metrics.PostsFetched.WithLabelValues(src.Name()).Add(float64(len(posts)))
		}
		p.logger.Debug("source fetched", "source", src.Name(), "count", len(posts))
		all = append(all, posts...)
	}

	filtered := make([]domain.Post, 0, len(all))
	for _, post := range all {
		if post.CreatedUTC.Before(since) {
			continue
		}
		if post.NumComments <= max(0, p.opts.MinComments) {
			continue
		}
		filtered = append(filtered, post)
	}
	return filtered
}

// enrichStage summarizes and derives insights per item. Failures isolate to
// the item and artifact that produced them.
func (p *Pipeline) enrichStage(ctx context.Context, selected []domain.Post, report *Report) (map[string]domain.Summary, map[string]domain.Insight) {
	summaries := make(map[string]domain.Summary, len(selected))
	insights := make(map[string]domain.Insight, len(selected))

	bySource := make(map[string]ports.Source, len(p.sources))
	for _, src := range p.sources {
		bySource[src.Name()] = src
	}

	for _, post := range selected {
		comments := p.fetchTopComments(ctx, bySource[post.Source], post, report)

		input := sanitize.Post(post)
		if input.Text == "" && p.extractor != nil {
			body, err := retry.Do(ctx, p.retry, func() (string, error) {
				return p.extractor.Extract(ctx, post.URL)
			})
			if err != nil {
				p.logger.Debug("body extraction failed", "post", post.ID, "error", err)
			} else {
				input.Text = sanitize.Text(body)
			}
		}

		summary, err := retry.Do(ctx, p.retry, func() (domain.Summary, error) {
			return p.summarizer.Summarize(ctx, input, comments)
		})
		if err != nil {
			p.recordError(report, "summarize", fmt.Sprintf("post %s: %v", post.ID, err))
			continue
		}
		summaries[post.ID] = summary
		if p.metrics != nil {
			p.metrics.PostsSummarized.Inc()
		}

		insight, err := retry.Do(ctx, p.retry, func() (domain.Insight, error) {
			return p.insights.DeriveInsights(ctx, summary)
		})
		if err != nil {
			p.recordError(report, "insights", fmt.Sprintf("post %s: %v", post.ID, err))
			continue
		}
		insights[post.ID] = insight
	}

	return summaries, insights
}

func (p *Pipeline) fetchTopComments(ctx context.Context, src ports.Source, post domain.Post, report *Report) []domain.Comment {
	if src == nil {
		return nil
	}
	comments, err := retry.Do(ctx, p.retry, func() ([]domain.Comment, error) {
		return src.FetchComments(ctx, post.ID, p.opts.TopKComments)
	})
	if err != nil {
		p.recordError(report, "comments", fmt.Sprintf("post %s: %v", post.ID, err))
		return nil
	}
	if len(comments) > p.opts.TopKComments {
		comments = comments[:p.opts.TopKComments]
	}
	return sanitize.Comments(comments)
}

// buildEmbeddingBatch assembles texts in a fixed order: title and summary
// per selected post, then one serialized insight per post that has one. The
// returned targets align positionally with the texts.
func buildEmbeddingBatch(selected []domain.Post, summaries map[string]domain.Summary, insights map[string]domain.Insight) ([]string, []embedTarget) {
	texts := make([]string, 0, 2*len(selected)+len(insights))
	targets := make([]embedTarget, 0, cap(texts))

	for _, post := range selected {
		texts = append(texts, post.Title)
		targets = append(targets, embedTarget{entityType: "post", entityID: post.ID})

		texts = append(texts, summaries[post.ID].Summary)
		targets = append(targets, embedTarget{entityType: "post", entityID: post.ID + "#summary"})
	}

	for _, post := range selected {
		insight, ok := insights[post.ID]
		if !ok {
			continue
		}
		payload, err := json.Marshal(insight)
		if err != nil {
			continue
		}
		texts = append(texts, string(payload))
		targets = append(targets, embedTarget{entityType: "insight", entityID: post.ID})
	}

	return texts, targets
}

func (p *Pipeline) embedStage(ctx context.Context, texts []string, report *Report) [][]float64 {
	if len(texts) == 0 {
		return nil
	}
	vectors, err := retry.Do(ctx, p.retry, func() ([][]float64, error) {
		return p.embedder.EmbedTexts(ctx, texts)
	})
	if err != nil {
		p.recordError(report, "embed", err.Error())
		return nil
	}
	return vectors
}

// persistStage upserts posts, embeddings, and insight records. Each artifact
// is written independently; one failure does not block the rest.
func (p *Pipeline) persistStage(ctx context.Context, selected []domain.Post, summaries map[string]domain.Summary, insights map[string]domain.Insight, targets []embedTarget, vectors [][]float64, report *Report) {
	result, err := retry.Do(ctx, p.retry, func() (domain.UpsertResult, error) {
		return p.store.UpsertPosts(ctx, selected)
	})
	if err != nil {
		p.recordError(report, "persist", fmt.Sprintf("posts: %v", err))
	} else {
		report.Persisted.Add(result)
		if p.metrics != nil {
			p.metrics.Upserts.WithLabelValues("post").Add(float64(result.Inserted + result.Updated))
		}
	}

	for i, target := range targets {
		if i >= len(vectors) || len(vectors[i]) == 0 {
			continue
		}
		vec := vectors[i]
		result, err := retry.Do(ctx, p.retry, func() (domain.UpsertResult, error) {
			return p.store.UpsertEmbedding(ctx, target.entityType, target.entityID, vec)
		})
		if err != nil {
			p.recordError(report, "persist", fmt.Sprintf("embedding %s/%s: %v", target.entityType, target.entityID, err))
			continue
		}
		report.Embedded++
		report.Persisted.Add(result)
		if p.metrics != nil {
			p.metrics.Upserts.WithLabelValues("embedding").Inc()
		}
	}

	for _, post := range selected {
		summary, ok := summaries[post.ID]
		if !ok {
			continue
		}
		record := domain.NewInsightRecord(post.ID, summary, insights[post.ID], p.opts.ModelName, p.opts.PromptVersion)
		result, err := retry.Do(ctx, p.retry, func() (domain.UpsertResult, error) {
			return p.store.UpsertInsight(ctx, record)
		})
		if err != nil {
			p.recordError(report, "persist", fmt.Sprintf("insight %s: %v", post.ID, err))
			continue
		}
		report.Persisted.Add(result)
		if p.metrics != nil {
			p.metrics.Upserts.WithLabelValues("insight").Inc()
		}
	}
}

func (p *Pipeline) notify(ctx context.Context, report Report) {
	if p.notifier == nil {
		return
	}
	digest := fmt.Sprintf("SocialPulse run: %d fetched, %d selected, %d summarized, %d embedded, %d inserted, %d updated, %d errors",
		report.Fetched, report.Selected, report.Summarized, report.Embedded,
		report.Persisted.Inserted, report.Persisted.Updated, len(report.Errors))
	if err := p.notifier.PublishDigest(ctx, digest); err != nil {
		p.logger.Warn("digest notification failed", "error", err)
	}
}

func (p *Pipeline) recordError(report *Report, stage, msg string) {
	report.Errors = append(report.Errors, stage+": "+msg)
	p.logger.Error("stage call failed", "stage", stage, "detail", msg)
	if p.metrics != nil {
		p.metrics.CallFailures.WithLabelValues(stage).Inc()
	}
}
