package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"SocialPulse/internal/config"
	"SocialPulse/internal/domain"
	"SocialPulse/internal/ports"
)

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIBase  = "https://oauth.reddit.com"
)

// Reddit fetches top submissions and comments through the official OAuth API.
// HTML scraping is deliberately not used.
type Reddit struct {
	clientID     string
	clientSecret string
	userAgent    string
	client       *http.Client
	apiBase      string
	tokenURL     string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

var _ ports.Source = (*Reddit)(nil)

// NewReddit builds a client from configuration; a nil http.Client gets a
// sane timeout default.
func NewReddit(cfg config.RedditConfig, client *http.Client) *Reddit {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Reddit{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userAgent:    cfg.UserAgent,
		client:       client,
		apiBase:      redditAPIBase,
		tokenURL:     redditTokenURL,
	}
}

// Name identifies the source inside the registry.
func (r *Reddit) Name() string {
	return "reddit"
}

// FetchTop returns top submissions per subreddit since the given time.
func (r *Reddit) FetchTop(ctx context.Context, topics []string, since time.Time, limitPerTopic int) ([]domain.Post, error) {
	posts := make([]domain.Post, 0, len(topics)*limitPerTopic)
	for _, sub := range topics {
		listing, err := r.fetchListing(ctx, sub, since, limitPerTopic)
		if err != nil {
			return nil, fmt.Errorf("subreddit %s: %w", sub, err)
		}
		posts = append(posts, listing...)
	}
	return posts, nil
}

// FetchComments returns up to limit top-level comments for a submission.
func (r *Reddit) FetchComments(ctx context.Context, postID string, limit int) ([]domain.Comment, error) {
	endpoint := fmt.Sprintf("%s/comments/%s?limit=%d&depth=1", r.apiBase, url.PathEscape(postID), limit)

	var listings []redditListing
	if err := r.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, fmt.Errorf("comments for %s: %w", postID, err)
	}
	if len(listings) < 2 {
		return []domain.Comment{}, nil
	}

	comments := make([]domain.Comment, 0, limit)
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" || child.Data.Body == "" {
			continue
		}
		comments = append(comments, domain.Comment{
			ID:     child.Data.ID,
			Body:   child.Data.Body,
			Score:  child.Data.Score,
			Author: child.Data.Author,
		})
		if len(comments) >= limit {
			break
		}
	}
	return comments, nil
}

func (r *Reddit) fetchListing(ctx context.Context, sub string, since time.Time, limit int) ([]domain.Post, error) {
	endpoint := fmt.Sprintf("%s/r/%s/top?t=%s&limit=%d", r.apiBase, url.PathEscape(sub), topWindow(since), limit)

	var listing redditListing
	if err := r.getJSON(ctx, endpoint, &listing); err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		posts = append(posts, domain.Post{
			ID:          d.ID,
			Source:      "reddit",
			Title:       d.Title,
			Author:      d.Author,
			URL:         d.URL,
			Text:        d.Selftext,
			Score:       d.Score,
			NumComments: d.NumComments,
			CreatedUTC:  time.Unix(int64(d.CreatedUTC), 0).UTC(),
			Topic:       d.Subreddit,
		})
	}
	return posts, nil
}

func (r *Reddit) getJSON(ctx context.Context, endpoint string, v any) error {
	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode listing: %w", err)
	}
	return nil
}

func (r *Reddit) accessToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return r.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit auth returned %s", resp.Status)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("reddit auth returned no token")
	}

	r.token = body.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn-60) * time.Second)
	return r.token, nil
}

// topWindow maps a since timestamp onto Reddit's coarse top-listing windows.
func topWindow(since time.Time) string {
	age := time.Since(since)
	switch {
	case age <= 24*time.Hour:
		return "day"
	case age <= 7*24*time.Hour:
		return "week"
	case age <= 31*24*time.Hour:
		return "month"
	default:
		return "year"
	}
}

type redditListing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []struct {
			Kind string     `json:"kind"`
			Data redditItem `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
	Selftext    string  `json:"selftext"`
	Body        string  `json:"body"`
}
