package content

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SocialPulse/internal/ports"
)

const maxBodyChars = 6000

// PageExtractor pulls readable paragraph text from an item's linked page,
// used when a post carries no selftext of its own.
type PageExtractor struct {
	client *http.Client
}

var _ ports.Extractor = (*PageExtractor)(nil)

// NewPageExtractor wires an HTTP client; nil gets a timeout default.
func NewPageExtractor(client *http.Client) *PageExtractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &PageExtractor{client: client}
}

// Extract fetches the URL and joins its paragraph text, capped so the
// result stays within summarizer input limits.
func (e *PageExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SocialPulse/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	doc.Find("script, style, nav, footer, header").Remove()

	var parts []string
	doc.Find("article p, main p, p").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})

	body := strings.Join(parts, "\n\n")
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}
	return body, nil
}
