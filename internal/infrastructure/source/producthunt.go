package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"SocialPulse/internal/config"
	"SocialPulse/internal/domain"
	"SocialPulse/internal/ports"
)

const productHuntAPIURL = "https://api.producthunt.com/v2/api/graphql"

const productHuntPostsQuery = `query($after: DateTime, $first: Int) {
  posts(order: VOTES, postedAfter: $after, first: $first) {
    edges {
      node {
        id
        name
        tagline
        url
        votesCount
        commentsCount
        createdAt
        user { username }
      }
    }
  }
}`

// ProductHunt fetches top launches through the official GraphQL v2 API.
// The API has no per-post comment listing we consume, so FetchComments
// returns an empty slice.
type ProductHunt struct {
	apiToken string
	client   *http.Client
	apiURL   string
}

var _ ports.Source = (*ProductHunt)(nil)

// NewProductHunt builds a client from configuration.
func NewProductHunt(cfg config.ProductHuntConfig, client *http.Client) *ProductHunt {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ProductHunt{apiToken: cfg.APIToken, client: client, apiURL: productHuntAPIURL}
}

// Name identifies the source inside the registry.
func (p *ProductHunt) Name() string {
	return "producthunt"
}

// FetchTop returns launches posted after since, ordered by votes. Topics do
// not apply to Product Hunt; the limit is taken as a whole.
func (p *ProductHunt) FetchTop(ctx context.Context, topics []string, since time.Time, limitPerTopic int) ([]domain.Post, error) {
	body, err := json.Marshal(map[string]any{
		"query": productHuntPostsQuery,
		"variables": map[string]any{
			"after": since.UTC().Format(time.RFC3339),
			"first": limitPerTopic,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("producthunt returned %s", resp.Status)
	}

	var payload struct {
		Data struct {
			Posts struct {
				Edges []struct {
					Node struct {
						ID            string    `json:"id"`
						Name          string    `json:"name"`
						Tagline       string    `json:"tagline"`
						URL           string    `json:"url"`
						VotesCount    int       `json:"votesCount"`
						CommentsCount int       `json:"commentsCount"`
						CreatedAt     time.Time `json:"createdAt"`
						User          struct {
							Username string `json:"username"`
						} `json:"user"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"posts"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	posts := make([]domain.Post, 0, len(payload.Data.Posts.Edges))
	for _, edge := range payload.Data.Posts.Edges {
		n := edge.Node
		posts = append(posts, domain.Post{
			ID:          n.ID,
			Source:      "producthunt",
			Title:       n.Name,
			Author:      n.User.Username,
			URL:         n.URL,
			Text:        n.Tagline,
			Score:       n.VotesCount,
			NumComments: n.CommentsCount,
			CreatedUTC:  n.CreatedAt.UTC(),
			Topic:       "launches",
		})
	}
	return posts, nil
}

// FetchComments is a no-op for Product Hunt.
func (p *ProductHunt) FetchComments(ctx context.Context, postID string, limit int) ([]domain.Comment, error) {
	return []domain.Comment{}, nil
}
