package domain

import "time"

// Post is the normalized unit of social content processed by the pipeline.
// Identity is the ID string alone; Source is informational and not part of
// the dedupe key.
type Post struct {
	ID          string
	Source      string
	Title       string
	Author      string
	URL         string
	Text        string
	Score       int
	NumComments int
	CreatedUTC  time.Time
	Topic       string
}

// Comment is a single reply attached to a post, as returned by a source.
type Comment struct {
	ID     string
	Body   string
	Score  int
	Author string
}

// Summary is the structured summarizer output for one post.
type Summary struct {
	Summary         string   `json:"summary"`
	PainPoints      []string `json:"pain_points"`
	Recommendations []string `json:"recommendations"`
	Segments        []string `json:"segments"`
	ToolsMentioned  []string `json:"tools_mentioned"`
	ContrarianTake  string   `json:"contrarian_take"`
	KeyMetrics      []string `json:"key_metrics"`
	Sources         []string `json:"sources"`
}

// Insight is the second-stage derivation produced from a Summary.
type Insight struct {
	FreelancerActions []string `json:"freelancer_actions"`
	ClientPlaybook    []string `json:"client_playbook"`
	Measurement       []string `json:"measurement"`
	RiskWatchouts     []string `json:"risk_watchouts"`
	DraftTitles       []string `json:"draft_titles"`
	Confidence        float64  `json:"confidence"`
	ShortRationale    string   `json:"short_rationale"`
}
