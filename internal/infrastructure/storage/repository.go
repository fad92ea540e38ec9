package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"SocialPulse/internal/domain"
	"SocialPulse/internal/ports"
)

// PostgresStore persists posts, insights, and embeddings with idempotent
// upserts keyed on stable identifiers.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.Store = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// UpsertPosts writes the post snapshots, updating rows that already exist.
func (s *PostgresStore) UpsertPosts(ctx context.Context, posts []domain.Post) (domain.UpsertResult, error) {
	var total domain.UpsertResult
	for _, post := range posts {
		query := s.builder.
			Insert("posts").
			Columns("id", "source", "title", "author", "url", "body", "score", "comments_count", "created_utc", "topic").
			Values(post.ID, post.Source, post.Title, post.Author, post.URL, post.Text, post.Score, post.NumComments, post.CreatedUTC, post.Topic).
			Suffix(`ON CONFLICT (id) DO UPDATE
			        SET score = EXCLUDED.score,
			            comments_count = EXCLUDED.comments_count,
			            title = EXCLUDED.title,
			            updated_at = NOW()
			        RETURNING (xmax = 0)`)

		inserted, err := s.execUpsert(ctx, query)
		if err != nil {
			return total, fmt.Errorf("upsert post %s: %w", post.ID, err)
		}
		total.Add(inserted)
	}
	return total, nil
}

// UpsertInsight writes one insight record keyed by its stable UUID.
func (s *PostgresStore) UpsertInsight(ctx context.Context, record domain.InsightRecord) (domain.UpsertResult, error) {
	query := s.builder.
		Insert("insights").
		Columns("id", "post_id", "summary", "pain_points", "recommendations", "segments",
			"tools_mentioned", "key_metrics", "evidence_links", "contrarian_take",
			"freelancer_actions", "client_playbook", "measurement", "risk_watchouts",
			"draft_titles", "confidence", "short_rationale", "llm_model", "prompt_version").
		Values(record.ID, record.PostID, record.Summary.Summary,
			pq.StringArray(record.Summary.PainPoints),
			pq.StringArray(record.Summary.Recommendations),
			pq.StringArray(record.Summary.Segments),
			pq.StringArray(record.Summary.ToolsMentioned),
			pq.StringArray(record.Summary.KeyMetrics),
			pq.StringArray(record.Summary.Sources),
			record.Summary.ContrarianTake,
			pq.StringArray(record.Insight.FreelancerActions),
			pq.StringArray(record.Insight.ClientPlaybook),
			pq.StringArray(record.Insight.Measurement),
			pq.StringArray(record.Insight.RiskWatchouts),
			pq.StringArray(record.Insight.DraftTitles),
			record.Insight.Confidence,
			record.Insight.ShortRationale,
			record.ModelName,
			record.PromptVersion).
		Suffix(`ON CONFLICT (id) DO UPDATE
		        SET summary = EXCLUDED.summary,
		            pain_points = EXCLUDED.pain_points,
		            recommendations = EXCLUDED.recommendations,
		            segments = EXCLUDED.segments,
		            tools_mentioned = EXCLUDED.tools_mentioned,
		            key_metrics = EXCLUDED.key_metrics,
		            evidence_links = EXCLUDED.evidence_links,
		            contrarian_take = EXCLUDED.contrarian_take,
		            freelancer_actions = EXCLUDED.freelancer_actions,
		            client_playbook = EXCLUDED.client_playbook,
		            measurement = EXCLUDED.measurement,
		            risk_watchouts = EXCLUDED.risk_watchouts,
		            draft_titles = EXCLUDED.draft_titles,
		            confidence = EXCLUDED.confidence,
		            short_rationale = EXCLUDED.short_rationale,
		            llm_model = EXCLUDED.llm_model,
		            prompt_version = EXCLUDED.prompt_version,
		            updated_at = NOW()
		        RETURNING (xmax = 0)`)

	result, err := s.execUpsert(ctx, query)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("upsert insight %s: %w", record.ID, err)
	}
	return result, nil
}

// UpsertEmbedding writes one vector keyed by (entity_type, entity_id).
func (s *PostgresStore) UpsertEmbedding(ctx context.Context, entityType, entityID string, vector []float64) (domain.UpsertResult, error) {
	query := s.builder.
		Insert("embeddings").
		Columns("entity_type", "entity_id", "embedding").
		Values(entityType, entityID, pq.Float64Array(vector)).
		Suffix(`ON CONFLICT (entity_type, entity_id) DO UPDATE
		        SET embedding = EXCLUDED.embedding,
		            updated_at = NOW()
		        RETURNING (xmax = 0)`)

	result, err := s.execUpsert(ctx, query)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("upsert embedding %s/%s: %w", entityType, entityID, err)
	}
	return result, nil
}

// execUpsert runs an insert-on-conflict statement and classifies the write.
// RETURNING (xmax = 0) is true for a fresh insert and false for an update.
func (s *PostgresStore) execUpsert(ctx context.Context, query sq.InsertBuilder) (domain.UpsertResult, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("build query: %w", err)
	}

	var inserted bool
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&inserted); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("exec upsert: %w", err)
	}

	if inserted {
		return domain.UpsertResult{Inserted: 1}, nil
	}
	return domain.UpsertResult{Updated: 1}, nil
}
