// Package fake provides deterministic Embedder and Completer doubles for tests.
package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docassist/internal/domain"
)

// Embedder maps text to keyword counts over a fixed vocabulary, plus a constant
// component so no vector is zero.
type Embedder struct {
	mu    sync.Mutex
	vocab []string
	calls int
	texts []string
	// Err, when set, is returned by every call (wrapped in domain.ErrEmbeddingService).
	Err error
	// FailOn makes a call fail when any input contains this substring.
	FailOn string
}

// NewEmbedder creates an embedder over vocab.
func NewEmbedder(vocab ...string) *Embedder {
	return &Embedder{vocab: vocab}
}

func (e *Embedder) Name() string { return "fake" }

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	e.mu.Lock()
	e.calls++
	e.texts = append(e.texts, texts...)
	err := e.Err
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingService, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if e.FailOn != "" && strings.Contains(t, e.FailOn) {
			return nil, fmt.Errorf("%w: rejected input", domain.ErrEmbeddingService)
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float64 {
	lower := strings.ToLower(text)
	v := make([]float64, len(e.vocab)+1)
	for i, w := range e.vocab {
		v[i] = float64(strings.Count(lower, strings.ToLower(w)))
	}
	v[len(e.vocab)] = 0.01
	return v
}

// Calls returns the number of Embed calls.
func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Texts returns every text passed to Embed.
func (e *Embedder) Texts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.texts...)
}

// Completer records requests and replies with a fixed answer.
type Completer struct {
	mu       sync.Mutex
	requests []domain.CompletionRequest
	Answer   string
	Err      error
}

// NewCompleter creates a completer that always returns answer.
func NewCompleter(answer string) *Completer {
	return &Completer{Answer: answer}
}

func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.Err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCompletionService, c.Err)
	}
	return c.Answer, nil
}

// Requests returns every request received.
func (c *Completer) Requests() []domain.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.CompletionRequest(nil), c.requests...)
}
