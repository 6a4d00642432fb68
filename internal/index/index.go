// Package index embeds chunks and keeps them searchable.
package index

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"docassist/internal/domain"
	"docassist/internal/log"
	"docassist/internal/vectorstore/memory"
)

// State is the readiness of an index.
type State int

const (
	// Empty means no chunk has been indexed yet.
	Empty State = iota
	// Ready means at least one chunk has a vector.
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "empty"
}

// Options tunes how chunks are embedded.
type Options struct {
	BatchSize int
	Workers   int
	// Slots bounds embedding calls in flight. Indexes sharing it share the bound;
	// nil gives the index its own of size Workers.
	Slots     *semaphore.Weighted
}

// Index owns every chunk and vector of a session.
type Index struct {
	embedder  domain.Embedder
	storage   *memory.Storage
	batchSize int
	workers   int
	slots     *semaphore.Weighted
}

// New creates an empty index backed by storage.
func New(embedder domain.Embedder, storage *memory.Storage, opts Options) *Index {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Slots == nil {
		opts.Slots = semaphore.NewWeighted(int64(opts.Workers))
	}
	return &Index{embedder: embedder, storage: storage, batchSize: opts.BatchSize, workers: opts.Workers, slots: opts.Slots}
}

// AddChunks embeds chunks in batches on a bounded worker pool and stores them.
// Each batch holds one slot while its embedding call is in flight.
// Nothing is stored unless every batch succeeds.
func (x *Index) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vectors := make([][]float64, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.workers)
	for start := 0; start < len(chunks); start += x.batchSize {
		end := start + x.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		start := start
		g.Go(func() error {
			if err := x.slots.Acquire(gctx, 1); err != nil {
				return err
			}
			defer x.slots.Release(1)
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = chunks[start+i].Text
			}
			vecs, err := x.embedder.Embed(gctx, texts)
			if err != nil {
				return err
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingService, len(vecs), len(texts))
			}
			copy(vectors[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if !errors.Is(err, domain.ErrEmbeddingService) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingService, err)
		}
		log.Error(err, "embedding failed, batch discarded", "chunks", len(chunks))
		return err
	}
	if err := x.storage.Add(chunks, vectors); err != nil {
		return err
	}
	log.Debug("chunks indexed", "chunks", len(chunks), "total", x.storage.Len())
	return nil
}

// VectorFor returns the vector stored for a chunk id.
func (x *Index) VectorFor(chunkID string) ([]float64, bool) {
	return x.storage.Vector(chunkID)
}

// Search returns the k stored chunks most similar to vector.
func (x *Index) Search(vector []float64, k int) ([]domain.SearchResult, error) {
	return x.storage.Search(vector, k)
}

// Embedder returns the embedder chunks were indexed with.
func (x *Index) Embedder() domain.Embedder { return x.embedder }

// State reports whether any chunk has been indexed.
func (x *Index) State() State {
	if x.storage.Len() > 0 {
		return Ready
	}
	return Empty
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int { return x.storage.Len() }
