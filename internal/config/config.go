package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv        = "SOCIALPULSE_CONFIG"
	databaseDSNEnv       = "DATABASE_DSN"
	redditClientIDEnv    = "REDDIT_CLIENT_ID"
	redditSecretEnv      = "REDDIT_CLIENT_SECRET"
	openAIAPIKeyEnv      = "OPENAI_API_KEY"
	productHuntTokenEnv  = "PRODUCTHUNT_API_TOKEN"
	slackBotTokenEnv     = "SLACK_BOT_TOKEN"
	pushgatewayURLEnv    = "PUSHGATEWAY_URL"
	defaultRedditAgent   = "socialpulse/0.1.0"
	defaultPromptVersion = "v1"
)

// Config holds all settings used across the application. It is read once at
// process start and passed by reference; nothing re-reads it afterwards.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Sources       SourcesConfig      `yaml:"sources"`
	Fetch         FetchConfig        `yaml:"fetch"`
	LLM           LLMConfig          `yaml:"llm"`
	Retry         RetryConfig        `yaml:"retry"`
	Notifications NotificationConfig `yaml:"notifications"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// LoggingConfig selects handler level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

// DatabaseConfig describes the Postgres connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SourcesConfig groups per-source enable flags and credentials.
type SourcesConfig struct {
	Reddit      RedditConfig      `yaml:"reddit"`
	HackerNews  HackerNewsConfig  `yaml:"hackernews"`
	ProductHunt ProductHuntConfig `yaml:"producthunt"`
}

// RedditConfig wires the official Reddit API.
type RedditConfig struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"clientId"`
	ClientSecret string   `yaml:"clientSecret"`
	UserAgent    string   `yaml:"userAgent"`
	Subreddits   []string `yaml:"subreddits"`
}

// HackerNewsConfig wires the Firebase API (no auth required).
type HackerNewsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ProductHuntConfig wires the GraphQL v2 API.
type ProductHuntConfig struct {
	Enabled  bool   `yaml:"enabled"`
	APIToken string `yaml:"apiToken"`
}

// FetchConfig bounds the ingest stage.
type FetchConfig struct {
	LookbackDays       int `yaml:"lookbackDays"`
	MinComments        int `yaml:"minComments"`
	TopN               int `yaml:"topN"`
	TopKComments       int `yaml:"topKComments"`
	LimitPerTopic      int `yaml:"limitPerTopic"`
	HTTPTimeoutSeconds int `yaml:"httpTimeoutSeconds"`
}

// HTTPTimeout resolves the per-call timeout as a duration.
func (f FetchConfig) HTTPTimeout() time.Duration {
	return time.Duration(f.HTTPTimeoutSeconds) * time.Second
}

// LLMConfig describes the OpenAI-compatible endpoint and models.
type LLMConfig struct {
	Endpoint        string `yaml:"endpoint"`
	APIKey          string `yaml:"apiKey"`
	SummarizerModel string `yaml:"summarizerModel"`
	InsightModel    string `yaml:"insightModel"`
	EmbeddingsModel string `yaml:"embeddingsModel"`
	EmbeddingsDim   int    `yaml:"embeddingsDim"`
	PromptVersion   string `yaml:"promptVersion"`
}

// RetryConfig tunes the shared backoff policy.
type RetryConfig struct {
	MaxAttempts     int `yaml:"maxAttempts"`
	BaseDelayMillis int `yaml:"baseDelayMillis"`
	MaxDelayMillis  int `yaml:"maxDelayMillis"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Slack SlackConfig `yaml:"slack"`
}

// SlackConfig wires the digest channel; empty token disables notification.
type SlackConfig struct {
	BotToken string `yaml:"botToken"`
	Channel  string `yaml:"channel"`
}

// MetricsConfig enables a push to Prometheus Pushgateway after each run;
// empty URL disables the push.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgatewayUrl"`
	JobName        string `yaml:"jobName"`
}

// Load reads YAML configuration from SOCIALPULSE_CONFIG (if set), applies
// environment overrides for secrets, and validates required settings.
// Validation failure is fatal for the process; nothing else is.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(redditClientIDEnv); v != "" {
		c.Sources.Reddit.ClientID = v
	}
	if v := os.Getenv(redditSecretEnv); v != "" {
		c.Sources.Reddit.ClientSecret = v
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(productHuntTokenEnv); v != "" {
		c.Sources.ProductHunt.APIToken = v
	}
	if v := os.Getenv(slackBotTokenEnv); v != "" {
		c.Notifications.Slack.BotToken = v
	}
	if v := os.Getenv(pushgatewayURLEnv); v != "" {
		c.Metrics.PushgatewayURL = v
	}
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config: llm.apiKey is required")
	}
	if c.Sources.Reddit.Enabled && (c.Sources.Reddit.ClientID == "" || c.Sources.Reddit.ClientSecret == "") {
		return fmt.Errorf("config: reddit enabled but credentials are missing")
	}
	if c.Sources.ProductHunt.Enabled && c.Sources.ProductHunt.APIToken == "" {
		return fmt.Errorf("config: producthunt enabled but apiToken is missing")
	}
	if c.Fetch.TopN <= 0 {
		return fmt.Errorf("config: fetch.topN must be positive")
	}
	if c.LLM.EmbeddingsDim <= 0 {
		return fmt.Errorf("config: llm.embeddingsDim must be positive")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{},
		Sources: SourcesConfig{
			Reddit: RedditConfig{
				Enabled:    true,
				UserAgent:  defaultRedditAgent,
				Subreddits: []string{"technology", "programming"},
			},
			HackerNews:  HackerNewsConfig{Enabled: false},
			ProductHunt: ProductHuntConfig{Enabled: false},
		},
		Fetch: FetchConfig{
			LookbackDays:       30,
			MinComments:        5,
			TopN:               20,
			TopKComments:       5,
			LimitPerTopic:      10,
			HTTPTimeoutSeconds: 60,
		},
		LLM: LLMConfig{
			Endpoint:        "https://api.openai.com/v1",
			SummarizerModel: "gpt-4o-mini",
			InsightModel:    "gpt-4o-mini",
			EmbeddingsModel: "text-embedding-3-large",
			EmbeddingsDim:   3072,
			PromptVersion:   defaultPromptVersion,
		},
		Retry: RetryConfig{
			MaxAttempts:     5,
			BaseDelayMillis: 500,
			MaxDelayMillis:  8000,
		},
		Metrics: MetricsConfig{JobName: "socialpulse"},
	}
}
