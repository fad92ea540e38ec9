package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"SocialPulse/internal/domain"
	"SocialPulse/internal/ports"
)

const insightSystemPrompt = "You are a senior B2B marketing strategist in the UK."

var insightSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "freelancer_actions": {"type": "array", "items": {"type": "string"}},
    "client_playbook": {"type": "array", "items": {"type": "string"}},
    "measurement": {"type": "array", "items": {"type": "string"}},
    "risk_watchouts": {"type": "array", "items": {"type": "string"}},
    "draft_titles": {"type": "array", "items": {"type": "string"}},
    "confidence": {"type": "number", "minimum": 0.0, "maximum": 1.0},
    "short_rationale": {"type": "string"}
  },
  "required": ["freelancer_actions", "client_playbook", "measurement",
    "risk_watchouts", "draft_titles", "confidence", "short_rationale"]
}`)

// InsightDeriver turns a summary into actionable insight fields.
type InsightDeriver struct {
	client *Client
	model  string
}

var _ ports.InsightDeriver = (*InsightDeriver)(nil)

// NewInsightDeriver wires the shared LLM client with the insight model.
func NewInsightDeriver(client *Client, model string) *InsightDeriver {
	return &InsightDeriver{client: client, model: model}
}

// DeriveInsights requests strict-JSON insights for one summary. Content the
// model returns that fails to parse is preserved in ShortRationale with
// zero confidence rather than surfaced as an error.
func (d *InsightDeriver) DeriveInsights(ctx context.Context, summary domain.Summary) (domain.Insight, error) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return domain.Insight{}, fmt.Errorf("marshal summary: %w", err)
	}

	messages := []chatMessage{
		{Role: "system", Content: insightSystemPrompt},
		{Role: "user", Content: "Given the following summariser JSON, return strict JSON with keys: " +
			"freelancer_actions[], client_playbook[], measurement[], risk_watchouts[], " +
			"draft_titles[], plus a confidence 0.0-1.0 and short_rationale.\n\n" + string(payload)},
	}

	content, err := d.client.chatJSON(ctx, d.model, "insight_munger_schema", insightSchema, messages)
	if err != nil {
		return domain.Insight{}, fmt.Errorf("derive insights: %w", err)
	}

	var insight domain.Insight
	if err := json.Unmarshal([]byte(content), &insight); err != nil {
		return fallbackInsight(content), nil
	}
	return insight, nil
}

func fallbackInsight(raw string) domain.Insight {
	return domain.Insight{
		FreelancerActions: []string{},
		ClientPlaybook:    []string{},
		Measurement:       []string{},
		RiskWatchouts:     []string{},
		DraftTitles:       []string{},
		Confidence:        0,
		ShortRationale:    raw,
	}
}
