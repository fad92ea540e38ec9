package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SocialPulse/internal/domain"
	"SocialPulse/internal/ports"
	"SocialPulse/internal/retry"
)

type fakeSource struct {
	name     string
	posts    []domain.Post
	comments map[string][]domain.Comment
	fetchErr error
	calls    int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchTop(_ context.Context, _ []string, _ time.Time, _ int) ([]domain.Post, error) {
	f.calls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.posts, nil
}

func (f *fakeSource) FetchComments(_ context.Context, postID string, _ int) ([]domain.Comment, error) {
	return f.comments[postID], nil
}

type fakeSummarizer struct {
	failFor map[string]bool
	seen    []domain.Post
}

func (f *fakeSummarizer) Summarize(_ context.Context, post domain.Post, _ []domain.Comment) (domain.Summary, error) {
	f.seen = append(f.seen, post)
	if f.failFor[post.ID] {
		return domain.Summary{}, errors.New("summarizer down")
	}
	return domain.Summary{Summary: "summary of " + post.ID}, nil
}

type fakeInsights struct {
	err error
}

func (f *fakeInsights) DeriveInsights(_ context.Context, summary domain.Summary) (domain.Insight, error) {
	if f.err != nil {
		return domain.Insight{}, f.err
	}
	return domain.Insight{ShortRationale: "from " + summary.Summary, Confidence: 0.9}, nil
}

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float64, error) {
	f.texts = texts
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{float64(i)}
	}
	return vectors, nil
}

type fakeStore struct {
	posts      []domain.Post
	insights   []domain.InsightRecord
	embeddings map[string][]float64
	postsErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{embeddings: map[string][]float64{}}
}

func (f *fakeStore) UpsertPosts(_ context.Context, posts []domain.Post) (domain.UpsertResult, error) {
	if f.postsErr != nil {
		return domain.UpsertResult{}, f.postsErr
	}
	f.posts = append(f.posts, posts...)
	return domain.UpsertResult{Inserted: len(posts)}, nil
}

func (f *fakeStore) UpsertInsight(_ context.Context, record domain.InsightRecord) (domain.UpsertResult, error) {
	f.insights = append(f.insights, record)
	return domain.UpsertResult{Inserted: 1}, nil
}

func (f *fakeStore) UpsertEmbedding(_ context.Context, entityType, entityID string, vector []float64) (domain.UpsertResult, error) {
	f.embeddings[entityType+"/"+entityID] = vector
	return domain.UpsertResult{Inserted: 1}, nil
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 2, BaseDelay: time.Microsecond, MaxDelay: time.Microsecond}
}

func recentPost(id string, score, comments int) domain.Post {
	return domain.Post{
		ID:          id,
		Source:      "reddit",
		Title:       "post " + id,
		URL:         "https://example.com/" + id,
		Text:        "body " + id,
		Score:       score,
		NumComments: comments,
		CreatedUTC:  time.Now().UTC().Add(-2 * time.Hour),
	}
}

func newTestPipeline(store *fakeStore, sources ...ports.Source) (*Pipeline, *fakeSummarizer, *fakeEmbedder) {
	summarizer := &fakeSummarizer{failFor: map[string]bool{}}
	embedder := &fakeEmbedder{}
	pipeline := NewPipeline(PipelineDeps{
		Sources:    sources,
		Summarizer: summarizer,
		Insights:   &fakeInsights{},
		Embedder:   embedder,
		Store:      store,
		Retry:      fastRetry(),
		Options: Options{
			LookbackDays:  30,
			MinComments:   5,
			TopN:          20,
			TopKComments:  5,
			LimitPerTopic: 25,
			ModelName:     "gpt-4o-mini",
			PromptVersion: "v1",
		},
	})
	return pipeline, summarizer, embedder
}

func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	src := &fakeSource{name: "reddit", posts: []domain.Post{
		recentPost("a", 100, 50),
		recentPost("b", 10, 6),
	}}

	pipeline, _, _ := newTestPipeline(store, src)
	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Selected)
	assert.Equal(t, 2, report.Summarized)
	assert.Equal(t, 2, report.Insights)
	assert.Empty(t, report.Errors)

	require.Len(t, store.posts, 2)
	assert.Equal(t, "a", store.posts[0].ID, "higher-ranked post persists first")
	assert.Len(t, store.insights, 2)
}

func TestRunSourceFailureIsolation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	healthy := &fakeSource{name: "hackernews", posts: []domain.Post{recentPost("hn1", 50, 30)}}
	broken := &fakeSource{name: "reddit", fetchErr: errors.New("oauth rejected")}

	pipeline, _, _ := newTestPipeline(store, broken, healthy)
	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Fetched, "items from the healthy source survive")
	assert.Equal(t, 2, broken.calls, "failed source is retried per policy")
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "reddit")
	require.Len(t, store.posts, 1)
	assert.Equal(t, "hn1", store.posts[0].ID)
}

func TestRunFiltersWindowAndMinComments(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	old := recentPost("old", 500, 100)
	old.CreatedUTC = time.Now().UTC().AddDate(0, 0, -31)
	quiet := recentPost("quiet", 100, 5) // exactly at the threshold is excluded
	keeper := recentPost("keep", 10, 6)

	src := &fakeSource{name: "reddit", posts: []domain.Post{old, quiet, keeper}}
	pipeline, _, _ := newTestPipeline(store, src)

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Fetched)
	require.Len(t, store.posts, 1)
	assert.Equal(t, "keep", store.posts[0].ID)
}

func TestRunDeduplicatesAcrossSources(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	first := &fakeSource{name: "reddit", posts: []domain.Post{recentPost("dup", 100, 50)}}
	second := &fakeSource{name: "hackernews", posts: []domain.Post{recentPost("dup", 999, 50)}}

	pipeline, _, _ := newTestPipeline(store, first, second)
	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Deduplicated)
	require.Len(t, store.posts, 1)
	assert.Equal(t, 100, store.posts[0].Score, "first-seen occurrence wins")
}

func TestRunTopNSelection(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	posts := make([]domain.Post, 0, 30)
	for i := 0; i < 30; i++ {
		posts = append(posts, recentPost(fmt.Sprintf("p%02d", i), i, 10))
	}
	src := &fakeSource{name: "reddit", posts: posts}

	pipeline, _, _ := newTestPipeline(store, src)
	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 30, report.Fetched)
	assert.Equal(t, 20, report.Selected)
	assert.Len(t, store.posts, 20)
	assert.Equal(t, "p29", store.posts[0].ID)
}

func TestRunSummarizeFailureIsolatesItem(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	src := &fakeSource{name: "reddit", posts: []domain.Post{
		recentPost("good", 100, 50),
		recentPost("bad", 90, 40),
	}}

	pipeline, summarizer, _ := newTestPipeline(store, src)
	summarizer.failFor["bad"] = true

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Selected)
	assert.Equal(t, 1, report.Summarized)
	require.Len(t, store.insights, 1)
	assert.Equal(t, "good", store.insights[0].PostID)
	assert.NotEmpty(t, report.Errors)

	// the failed item's post row still persists
	assert.Len(t, store.posts, 2)
}

func TestRunEmbeddingBatchOrder(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	src := &fakeSource{name: "reddit", posts: []domain.Post{
		recentPost("a", 100, 50),
		recentPost("b", 50, 25),
	}}

	pipeline, _, embedder := newTestPipeline(store, src)
	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	// titles and summaries interleave per post, insights follow
	require.Len(t, embedder.texts, 6)
	assert.Equal(t, "post a", embedder.texts[0])
	assert.Equal(t, "summary of a", embedder.texts[1])
	assert.Equal(t, "post b", embedder.texts[2])
	assert.Equal(t, "summary of b", embedder.texts[3])
	assert.Contains(t, embedder.texts[4], "from summary of a")
	assert.Contains(t, embedder.texts[5], "from summary of b")

	assert.Contains(t, store.embeddings, "post/a")
	assert.Contains(t, store.embeddings, "post/a#summary")
	assert.Contains(t, store.embeddings, "insight/a")
}

func TestRunEmbedFailureDoesNotBlockPersist(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	src := &fakeSource{name: "reddit", posts: []domain.Post{recentPost("a", 100, 50)}}

	pipeline, _, embedder := newTestPipeline(store, src)
	embedder.err = errors.New("embeddings api down")

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Embedded)
	assert.Empty(t, store.embeddings)
	assert.Len(t, store.posts, 1)
	assert.Len(t, store.insights, 1)
	assert.NotEmpty(t, report.Errors)
}

func TestRunPersistFailureRecorded(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.postsErr = errors.New("connection reset")
	src := &fakeSource{name: "reddit", posts: []domain.Post{recentPost("a", 100, 50)}}

	pipeline, _, _ := newTestPipeline(store, src)
	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, report.Errors)
	found := false
	for _, msg := range report.Errors {
		if strings.HasPrefix(msg, "persist:") {
			found = true
		}
	}
	assert.True(t, found)
	// embeddings and insights still flow despite the posts failure
	assert.Len(t, store.insights, 1)
}

func TestRunSanitizesBeforeSummarize(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	post := recentPost("pii", 100, 50)
	post.Text = "mail me at leak@example.com"
	src := &fakeSource{name: "reddit", posts: []domain.Post{post}}

	pipeline, summarizer, _ := newTestPipeline(store, src)
	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summarizer.seen, 1)
	assert.NotContains(t, summarizer.seen[0].Text, "leak@example.com")
	assert.Contains(t, summarizer.seen[0].Text, "[EMAIL_REDACTED]")
}

func TestRunEmptyFetchCompletesCleanly(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	src := &fakeSource{name: "reddit", posts: []domain.Post{}}

	pipeline, _, embedder := newTestPipeline(store, src)
	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Fetched)
	assert.Zero(t, report.Selected)
	assert.Empty(t, embedder.texts)
	assert.Empty(t, store.posts)
	assert.Empty(t, report.Errors)
}
