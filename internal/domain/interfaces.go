package domain

import "context"

// NoDocumentsMessage is returned in place of an answer while nothing has been indexed.
const NoDocumentsMessage = "No documents have been loaded yet."

// Document is a single uploaded file after text extraction.
type Document struct {
	ID          string
	Name        string
	Text        string
	Pages       int
	PageOffsets []int
	Preview     string
	Chunks      []Chunk
}

// PageAt returns the 1-based page containing the byte offset.
func (d Document) PageAt(offset int) int {
	page := 1
	for i, start := range d.PageOffsets {
		if start > offset {
			break
		}
		page = i + 1
	}
	return page
}

// Chunk is a bounded substring of a document used for embedding and retrieval.
// Text is always Document.Text[Start:End].
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Start      int
	End        int
	Page       int
	Text       string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// CompletionRequest is a single prompt sent to a completion model.
type CompletionRequest struct {
	Model       string
	Temperature float64
	System      string
	Prompt      string
}

// Embedder converts text into fixed-dimension vectors, one per input.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Completer generates text for a prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Previewer produces a brief extractive summary of the provided text.
type Previewer interface {
	Summarize(text string, maxSentences int) (string, error)
}
