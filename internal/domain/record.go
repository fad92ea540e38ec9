package domain

import "github.com/google/uuid"

// insightNamespace scopes deterministic record IDs so the same post always
// maps to the same row on repeated runs.
var insightNamespace = uuid.MustParse("9a1c1e9e-7a10-4f3b-9c1d-2b8f6e4a5d30")

// InsightRecord is the persistence row joining a post's summary, derived
// insight, and provenance metadata.
type InsightRecord struct {
	ID            string
	PostID        string
	Summary       Summary
	Insight       Insight
	ModelName     string
	PromptVersion string
}

// NewInsightRecord builds a record with a stable UUID derived from the post
// ID, so upserting it twice updates rather than duplicates.
func NewInsightRecord(postID string, summary Summary, insight Insight, model, promptVersion string) InsightRecord {
	return InsightRecord{
		ID:            uuid.NewSHA1(insightNamespace, []byte(postID)).String(),
		PostID:        postID,
		Summary:       summary,
		Insight:       insight,
		ModelName:     model,
		PromptVersion: promptVersion,
	}
}

// UpsertResult reports write volume for an idempotent storage call.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// Add merges counts from another result.
func (r *UpsertResult) Add(other UpsertResult) {
	r.Inserted += other.Inserted
	r.Updated += other.Updated
}
