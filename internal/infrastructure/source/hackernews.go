package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"SocialPulse/internal/domain"
	"SocialPulse/internal/ports"
)

const hackerNewsAPIBase = "https://hacker-news.firebaseio.com/v0"

// HackerNews fetches top stories through the official Firebase API. Topics
// do not apply; the topic arguments only scale the overall fetch limit.
type HackerNews struct {
	client  *http.Client
	apiBase string
}

var _ ports.Source = (*HackerNews)(nil)

// NewHackerNews builds a client; a nil http.Client gets a timeout default.
func NewHackerNews(client *http.Client) *HackerNews {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HackerNews{client: client, apiBase: hackerNewsAPIBase}
}

// Name identifies the source inside the registry.
func (h *HackerNews) Name() string {
	return "hackernews"
}

// FetchTop returns current top stories created at or after since.
func (h *HackerNews) FetchTop(ctx context.Context, topics []string, since time.Time, limitPerTopic int) ([]domain.Post, error) {
	limit := limitPerTopic
	if n := len(topics); n > 1 {
		limit *= n
	}

	var ids []int64
	if err := h.getJSON(ctx, h.apiBase+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	posts := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		item, err := h.fetchItem(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", id, err)
		}
		if item.Type != "story" || item.Title == "" {
			continue
		}
		created := time.Unix(item.Time, 0).UTC()
		if created.Before(since) {
			continue
		}
		posts = append(posts, domain.Post{
			ID:          strconv.FormatInt(item.ID, 10),
			Source:      "hackernews",
			Title:       item.Title,
			Author:      item.By,
			URL:         item.URL,
			Text:        item.Text,
			Score:       item.Score,
			NumComments: item.Descendants,
			CreatedUTC:  created,
			Topic:       "topstories",
		})
	}
	return posts, nil
}

// FetchComments returns up to limit direct children of a story.
func (h *HackerNews) FetchComments(ctx context.Context, postID string, limit int) ([]domain.Comment, error) {
	id, err := strconv.ParseInt(postID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid hackernews id %q: %w", postID, err)
	}

	story, err := h.fetchItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("story %s: %w", postID, err)
	}

	kids := story.Kids
	if len(kids) > limit {
		kids = kids[:limit]
	}

	comments := make([]domain.Comment, 0, len(kids))
	for _, kid := range kids {
		item, err := h.fetchItem(ctx, kid)
		if err != nil {
			return nil, fmt.Errorf("comment %d: %w", kid, err)
		}
		if item.Type != "comment" || item.Deleted || item.Text == "" {
			continue
		}
		comments = append(comments, domain.Comment{
			ID:     strconv.FormatInt(item.ID, 10),
			Body:   item.Text,
			Author: item.By,
		})
	}
	return comments, nil
}

func (h *HackerNews) fetchItem(ctx context.Context, id int64) (hnItem, error) {
	var item hnItem
	err := h.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", h.apiBase, id), &item)
	return item, err
}

func (h *HackerNews) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hackernews returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode item: %w", err)
	}
	return nil
}

type hnItem struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	By          string  `json:"by"`
	Time        int64   `json:"time"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Text        string  `json:"text"`
	Score       int     `json:"score"`
	Descendants int     `json:"descendants"`
	Kids        []int64 `json:"kids"`
	Deleted     bool    `json:"deleted"`
}
