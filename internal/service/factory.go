package service

import (
	"golang.org/x/sync/semaphore"

	"docassist/internal/chunker"
	"docassist/internal/config"
	"docassist/internal/domain"
	"docassist/internal/extract/pdf"
	"docassist/internal/index"
	"docassist/internal/ingest"
	"docassist/internal/retriever"
	"docassist/internal/summarizer"
	"docassist/internal/synthesizer"
	"docassist/internal/vectorstore/memory"
)

// Options are the shared dependencies every session is built from.
type Options struct {
	Embedder  domain.Embedder
	Completer domain.Completer
	// Files returns the upload store of a session; nil keeps uploads in memory only.
	Files     func(sessionID string) FileStore
	Pipeline  config.Pipeline
	Retrieval config.RetrievalConfig
	BatchSize int

	// EmbedSlots bounds embedding calls in flight across every session built
	// from these options; nil bounds each session on its own.
	EmbedSlots *semaphore.Weighted
}

// NewFactory returns a Factory assembling an independent pipeline per session.
// All sessions share one pool of Retrieval.Workers embedding slots.
func NewFactory(o Options) Factory {
	if o.EmbedSlots == nil {
		workers := o.Retrieval.Workers
		if workers <= 0 {
			workers = 4
		}
		o.EmbedSlots = semaphore.NewWeighted(int64(workers))
	}
	return func(id string) (*Session, error) {
		return Build(id, o), nil
	}
}

// Build assembles a session with its own index.
func Build(id string, o Options) *Session {
	ing := ingest.New(
		pdf.NewExtractor(),
		chunker.NewBoundaryChunker(o.Pipeline.ChunkSize, o.Pipeline.ChunkOverlap),
		summarizer.NewFrequencySummarizer(),
		o.Retrieval.PreviewSentences,
	)
	idx := index.New(o.Embedder, memory.NewStorage(), index.Options{BatchSize: o.BatchSize, Workers: o.Retrieval.Workers, Slots: o.EmbedSlots})
	c := Components{
		Ingester:    ing,
		Index:       idx,
		Retriever:   retriever.New(idx, o.Pipeline.TopK),
		Synthesizer: synthesizer.New(o.Completer, synthesizer.Options{Model: o.Pipeline.Model, Temperature: o.Pipeline.Temperature}),
	}
	if o.Files != nil {
		c.Files = o.Files(id)
	}
	return NewSession(id, c, Settings{
		TopK:                     o.Pipeline.TopK,
		Workers:                  o.Retrieval.Workers,
		SummaryChunksPerDocument: o.Retrieval.SummaryChunksPerDocument,
	})
}
