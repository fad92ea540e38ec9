package dedupe

import (
	"errors"

	"SocialPulse/internal/domain"
)

// ErrNilPosts signals a contract violation: callers must pass a concrete,
// possibly empty, slice.
var ErrNilPosts = errors.New("dedupe: posts slice is nil")

// Posts returns a new slice containing the first occurrence of each post ID,
// in input order. Later duplicates are dropped regardless of their field
// values; duplicates are keyed on ID alone, so two sources producing the
// same ID string collapse into one post.
func Posts(posts []domain.Post) ([]domain.Post, error) {
	if posts == nil {
		return nil, ErrNilPosts
	}

	seen := make(map[string]struct{}, len(posts))
	result := make([]domain.Post, 0, len(posts))
	for _, post := range posts {
		if _, ok := seen[post.ID]; ok {
			continue
		}
		seen[post.ID] = struct{}{}
		result = append(result, post)
	}

	return result, nil
}
