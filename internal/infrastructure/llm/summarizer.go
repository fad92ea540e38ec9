package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"SocialPulse/internal/domain"
	"SocialPulse/internal/ports"
)

const (
	summarizerSystemPrompt = "You are a rigorous marketing analyst. Be concise, factual, and specific. UK English."

	maxCommentChars = 800
	maxInputChars   = 2000
)

var summarySchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "summary": {"type": "string"},
    "pain_points": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}},
    "segments": {"type": "array", "items": {"type": "string"}},
    "tools_mentioned": {"type": "array", "items": {"type": "string"}},
    "contrarian_take": {"type": "string"},
    "key_metrics": {"type": "array", "items": {"type": "string"}},
    "sources": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["summary", "pain_points", "recommendations", "segments",
    "tools_mentioned", "contrarian_take", "key_metrics", "sources"]
}`)

// Summarizer produces structured summaries from a post and its top comments.
type Summarizer struct {
	client *Client
	model  string
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer wires the shared LLM client with the summarizer model.
func NewSummarizer(client *Client, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

// Summarize requests a strict-JSON summary. If the model returns content
// that fails to parse, the raw text lands in Summary with empty arrays; a
// malformed response is never surfaced as an error.
func (s *Summarizer) Summarize(ctx context.Context, post domain.Post, topComments []domain.Comment) (domain.Summary, error) {
	messages := []chatMessage{
		{Role: "system", Content: summarizerSystemPrompt},
		{Role: "user", Content: "Provide post title + selftext + top comments (with scores).\n" +
			"Return strict JSON with keys: summary, pain_points[], recommendations[], segments[], " +
			"tools_mentioned[], contrarian_take, key_metrics[], sources[].\n\n" +
			buildSummaryInput(post, topComments)},
	}

	content, err := s.client.chatJSON(ctx, s.model, "summariser_schema", summarySchema, messages)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summarize %s: %w", post.ID, err)
	}

	var summary domain.Summary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		return fallbackSummary(content), nil
	}
	return summary, nil
}

func buildSummaryInput(post domain.Post, comments []domain.Comment) string {
	var b strings.Builder
	b.WriteString("Post title:\n" + post.Title + "\n\nPost selftext:\n" + post.Text + "\n\nTop comments (truncated):\n")
	for _, c := range comments {
		b.WriteString(fmt.Sprintf("- [score %d] %s\n", c.Score, truncate(c.Body, maxCommentChars)))
	}
	return truncate(b.String(), maxInputChars)
}

func fallbackSummary(raw string) domain.Summary {
	return domain.Summary{
		Summary:         raw,
		PainPoints:      []string{},
		Recommendations: []string{},
		Segments:        []string{},
		ToolsMentioned:  []string{},
		KeyMetrics:      []string{},
		Sources:         []string{},
	}
}
