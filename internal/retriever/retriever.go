// Package retriever finds the chunks most similar to a question.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"docassist/internal/domain"
	"docassist/internal/index"
)

// Retriever embeds queries with the index's embedder and scans the index.
type Retriever struct {
	index *index.Index
	topK  int
}

// New creates a retriever returning topK chunks when Retrieve is given k < 1.
func New(idx *index.Index, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{index: idx, topK: topK}
}

// Retrieve returns up to k chunks ordered by descending similarity to query.
// An empty index yields no results and does not call the embedder.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if k < 1 {
		k = r.topK
	}
	if r.index.State() == index.Empty {
		return nil, nil
	}
	vecs, err := r.index.Embedder().Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for query", domain.ErrEmbeddingService, len(vecs))
	}
	return r.index.Search(vecs[0], k)
}

// TopK returns the default number of chunks retrieved.
func (r *Retriever) TopK() int { return r.topK }
