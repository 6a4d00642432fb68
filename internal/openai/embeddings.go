package openai

import (
	"context"
	"errors"
	"fmt"

	"docassist/internal/domain"
)

// Embedder calls the /embeddings endpoint.
type Embedder struct {
	client *Client
	model  string
}

// NewEmbedder creates an embedder for the given model.
func NewEmbedder(client *Client, model string) *Embedder {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Embedder{client: client, model: model}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "openai:" + e.model }

// Embed returns one vector per input text, in input order.
// Every failure wraps domain.ErrEmbeddingService.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}{Input: texts, Model: e.model}
	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.postJSON(ctx, "/embeddings", req, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingService, err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", domain.ErrEmbeddingService, len(out.Data), len(texts))
	}
	vectors := make([][]float64, len(texts))
	for i, d := range out.Data {
		idx := d.Index
		if idx < 0 || idx >= len(texts) || vectors[idx] != nil {
			// some compatible servers leave index unset
			idx = i
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingService, errors.New("empty embedding"))
		}
		vectors[idx] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("%w: no embedding for input %d", domain.ErrEmbeddingService, i)
		}
	}
	return vectors, nil
}
