package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"SocialPulse/internal/config"
	"SocialPulse/internal/domain"
)

func chatResponder(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}
}

func TestSummarizeParsesStrictJSON(t *testing.T) {
	t.Parallel()

	payload := `{"summary":"devs dislike meetings","pain_points":["too many meetings"],` +
		`"recommendations":["async updates"],"segments":["engineering"],` +
		`"tools_mentioned":["slack"],"contrarian_take":"some meetings help",` +
		`"key_metrics":["4h saved weekly"],"sources":["comment thread"]}`

	client := testClient(t, chatResponder(t, payload))
	summarizer := NewSummarizer(client, "gpt-4o-mini")

	post := domain.Post{ID: "p1", Title: "Meetings", Text: "so many meetings"}
	comments := []domain.Comment{{Body: "agreed", Score: 12}}

	summary, err := summarizer.Summarize(context.Background(), post, comments)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Summary != "devs dislike meetings" {
		t.Errorf("Summary = %q", summary.Summary)
	}
	if len(summary.PainPoints) != 1 || summary.PainPoints[0] != "too many meetings" {
		t.Errorf("PainPoints = %v", summary.PainPoints)
	}
	if summary.ContrarianTake != "some meetings help" {
		t.Errorf("ContrarianTake = %q", summary.ContrarianTake)
	}
}

func TestSummarizeMalformedContentFallsBack(t *testing.T) {
	t.Parallel()

	raw := "I could not produce JSON, sorry"
	client := testClient(t, chatResponder(t, raw))
	summarizer := NewSummarizer(client, "gpt-4o-mini")

	summary, err := summarizer.Summarize(context.Background(), domain.Post{ID: "p1"}, nil)
	if err != nil {
		t.Fatalf("malformed content must not be an error, got %v", err)
	}
	if summary.Summary != raw {
		t.Errorf("Summary = %q, want the raw model output", summary.Summary)
	}
	if summary.PainPoints == nil || len(summary.PainPoints) != 0 {
		t.Errorf("PainPoints = %v, want empty non-nil slice", summary.PainPoints)
	}
}

func TestSummarizeTransportErrorSurfaces(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	})
	summarizer := NewSummarizer(client, "gpt-4o-mini")

	if _, err := summarizer.Summarize(context.Background(), domain.Post{ID: "p1"}, nil); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestSummarizeMisconfiguredClient(t *testing.T) {
	t.Parallel()

	client := NewClient(config.LLMConfig{}, time.Second)
	summarizer := NewSummarizer(client, "gpt-4o-mini")

	if _, err := summarizer.Summarize(context.Background(), domain.Post{ID: "p1"}, nil); err == nil {
		t.Fatal("expected error for missing endpoint and key")
	}
}

func TestDeriveInsightsParsesStrictJSON(t *testing.T) {
	t.Parallel()

	payload := `{"freelancer_actions":["pitch async audits"],"client_playbook":["trial async week"],` +
		`"measurement":["meeting hours"],"risk_watchouts":["slower decisions"],` +
		`"draft_titles":["The Async Shift"],"confidence":0.8,"short_rationale":"strong thread consensus"}`

	client := testClient(t, chatResponder(t, payload))
	deriver := NewInsightDeriver(client, "gpt-4o-mini")

	insight, err := deriver.DeriveInsights(context.Background(), domain.Summary{Summary: "async wins"})
	if err != nil {
		t.Fatalf("DeriveInsights: %v", err)
	}
	if insight.Confidence != 0.8 {
		t.Errorf("Confidence = %v", insight.Confidence)
	}
	if len(insight.FreelancerActions) != 1 {
		t.Errorf("FreelancerActions = %v", insight.FreelancerActions)
	}
}

func TestDeriveInsightsMalformedContentFallsBack(t *testing.T) {
	t.Parallel()

	raw := "not json at all"
	client := testClient(t, chatResponder(t, raw))
	deriver := NewInsightDeriver(client, "gpt-4o-mini")

	insight, err := deriver.DeriveInsights(context.Background(), domain.Summary{Summary: "x"})
	if err != nil {
		t.Fatalf("malformed content must not be an error, got %v", err)
	}
	if insight.ShortRationale != raw {
		t.Errorf("ShortRationale = %q, want the raw model output", insight.ShortRationale)
	}
	if insight.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", insight.Confidence)
	}
}

func TestBuildSummaryInputTruncates(t *testing.T) {
	t.Parallel()

	post := domain.Post{Title: "t", Text: strings.Repeat("x", 5000)}
	got := buildSummaryInput(post, nil)
	if len(got) > maxInputChars+len("…") {
		t.Errorf("input length %d exceeds cap", len(got))
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefghij", 4); got != "abcd…" {
		t.Errorf("truncate = %q", got)
	}
}
