package rank

import (
	"errors"
	"math"
	"sort"
	"time"

	"SocialPulse/internal/domain"
)

const (
	scoreWeight   = 1.0
	commentWeight = 0.5
	ratioWeight   = 2.0
	halfLifeHours = 48.0
)

// ErrNilPosts signals a contract violation: callers must pass a concrete,
// possibly empty, slice.
var ErrNilPosts = errors.New("rank: posts slice is nil")

// CompositeRank computes the engagement score for one item, decayed by age.
// upvoteRatio is optional; nil contributes no bonus. Ages in the future
// clamp to zero, so the decay factor never exceeds one. Negative scores and
// comment counts propagate arithmetically.
func CompositeRank(score, comments int, upvoteRatio *float64, createdUTC, now time.Time) float64 {
	base := scoreWeight*float64(score) + commentWeight*float64(comments)

	ratioBonus := 0.0
	if upvoteRatio != nil {
		ratioBonus = ratioWeight * (*upvoteRatio)
	}

	ageHours := math.Max(0, now.Sub(createdUTC).Hours())
	decay := math.Pow(0.5, ageHours/halfLifeHours)

	return (base + ratioBonus) * decay
}

// Posts returns a new slice sorted descending by composite rank. Ranks are
// evaluated at a single captured instant so re-ranking the result within the
// same call is deterministic. Ties keep their original relative order.
//
// Upvote ratio is not carried on domain.Post, so the bonus term is always
// zero here; the field stays in CompositeRank for callers that have it.
func Posts(posts []domain.Post) ([]domain.Post, error) {
	if posts == nil {
		return nil, ErrNilPosts
	}

	now := time.Now().UTC()

	type scored struct {
		post domain.Post
		rank float64
	}

	entries := make([]scored, len(posts))
	for i, p := range posts {
		entries[i] = scored{post: p, rank: CompositeRank(p.Score, p.NumComments, nil, p.CreatedUTC, now)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].rank > entries[j].rank
	})

	ranked := make([]domain.Post, len(entries))
	for i, e := range entries {
		ranked[i] = e.post
	}

	return ranked, nil
}
