package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"SocialPulse/internal/ports"
)

// Embedder creates embedding vectors for batches of text.
type Embedder struct {
	client *Client
	model  string
	dim    int
}

var _ ports.Embedder = (*Embedder)(nil)

// NewEmbedder wires the shared LLM client with the embeddings model and the
// fixed output dimension.
func NewEmbedder(client *Client, model string, dim int) *Embedder {
	return &Embedder{client: client, model: model, dim: dim}
}

// EmbedTexts returns one vector per input, in input order. Empty and
// whitespace-only inputs get an empty vector and are not sent upstream.
// Returned vectors are padded or truncated to the configured dimension.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	result := make([][]float64, len(texts))
	for i := range result {
		result[i] = []float64{}
	}
	if len(texts) == 0 {
		return result, nil
	}

	indices := make([]int, 0, len(texts))
	inputs := make([]string, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		indices = append(indices, i)
		inputs = append(inputs, t)
	}
	if len(inputs) == 0 {
		return result, nil
	}

	body, err := json.Marshal(map[string]any{
		"model": e.model,
		"input": inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embeddings payload: %w", err)
	}

	var resp struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.post(ctx, "/embeddings", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embeddings count mismatch: sent %d, got %d", len(inputs), len(resp.Data))
	}

	for pos, idx := range indices {
		result[idx] = e.fitDimension(resp.Data[pos].Embedding)
	}
	return result, nil
}

func (e *Embedder) fitDimension(vec []float64) []float64 {
	if len(vec) > e.dim {
		return vec[:e.dim]
	}
	for len(vec) < e.dim {
		vec = append(vec, 0)
	}
	return vec
}
