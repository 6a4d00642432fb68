package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"docassist/internal/domain"
	"docassist/internal/index"
	"docassist/internal/log"
	"docassist/internal/retriever"
	"docassist/internal/synthesizer"
)

// FileStatus is the outcome of one uploaded file.
type FileStatus string

const (
	StatusIngested FileStatus = "ingested"
	StatusSkipped  FileStatus = "skipped"
	StatusFailed   FileStatus = "failed"
)

// Upload is a file received from the user.
type Upload struct {
	Filename string
	Data     []byte
}

// FileResult reports what happened to one upload.
type FileResult struct {
	Filename string
	Status   FileStatus
	Chunks   int
	Err      error
}

// DocumentInfo describes a loaded document.
type DocumentInfo struct {
	Name    string
	Pages   int
	Chunks  int
	Preview string
	AddedAt time.Time
}

// Ingester turns file bytes into a chunked document.
type Ingester interface {
	Ingest(ctx context.Context, data []byte, filename string) (domain.Document, error)
}

// FileStore keeps uploaded bytes by name.
type FileStore interface {
	Save(ctx context.Context, name string, data []byte) error
}

// Components are the collaborators a session is assembled from.
type Components struct {
	Ingester    Ingester
	Index       *index.Index
	Retriever   *retriever.Retriever
	Synthesizer *synthesizer.Synthesizer
	// Files may be nil to keep uploads in memory only.
	Files FileStore
}

// Settings tunes a session.
type Settings struct {
	TopK                     int
	Workers                  int
	SummaryChunksPerDocument int
}

// Session is the state of one user: the documents they uploaded and the index built from them.
type Session struct {
	id       string
	c        Components
	settings Settings

	mu      sync.RWMutex
	docs    map[string]*domain.Document
	order   []string
	addedAt map[string]time.Time
	pending map[string]struct{}
}

// NewSession creates an empty session.
func NewSession(id string, c Components, settings Settings) *Session {
	if settings.TopK <= 0 {
		settings.TopK = 5
	}
	if settings.Workers <= 0 {
		settings.Workers = 4
	}
	if settings.SummaryChunksPerDocument <= 0 {
		settings.SummaryChunksPerDocument = 3
	}
	return &Session{
		id:       id,
		c:        c,
		settings: settings,
		docs:     make(map[string]*domain.Document),
		addedAt:  make(map[string]time.Time),
		pending:  make(map[string]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State reports whether any document has been indexed.
func (s *Session) State() index.State { return s.c.Index.State() }

// Upload ingests files concurrently. Names already loaded, or repeated within
// the batch, are skipped. A failing file never stops its siblings.
func (s *Session) Upload(ctx context.Context, files []Upload) []FileResult {
	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Workers)
	for i, f := range files {
		results[i].Filename = f.Filename
		if !s.reserve(f.Filename) {
			results[i].Status = StatusSkipped
			continue
		}
		i, f := i, f
		g.Go(func() error {
			n, err := s.ingest(gctx, f)
			if err != nil {
				s.release(f.Filename)
				log.Error(err, "ingest failed", "session", s.id, "file", f.Filename)
				results[i].Status = StatusFailed
				results[i].Err = err
				return nil
			}
			results[i].Status = StatusIngested
			results[i].Chunks = n
			return nil
		})
	}
	_ = g.Wait()
	log.Info("upload processed", "session", s.id, "files", len(files), "ingested", CountStatus(results, StatusIngested))
	return results
}

func (s *Session) ingest(ctx context.Context, f Upload) (int, error) {
	if s.c.Files != nil {
		if err := s.c.Files.Save(ctx, f.Filename, f.Data); err != nil {
			return 0, err
		}
	}
	doc, err := s.c.Ingester.Ingest(ctx, f.Data, f.Filename)
	if err != nil {
		return 0, err
	}
	if err := s.c.Index.AddChunks(ctx, doc.Chunks); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, f.Filename)
	s.docs[f.Filename] = &doc
	s.order = append(s.order, f.Filename)
	s.addedAt[f.Filename] = time.Now()
	return len(doc.Chunks), nil
}

// reserve claims a filename for ingestion; it fails if the name is loaded or in flight.
func (s *Session) reserve(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; ok {
		return false
	}
	if _, ok := s.pending[name]; ok {
		return false
	}
	s.pending[name] = struct{}{}
	return true
}

func (s *Session) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, name)
}

// Query answers a question from the most similar chunks.
func (s *Session) Query(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.ErrEmptyQuery
	}
	if s.c.Index.State() == index.Empty {
		return domain.NoDocumentsMessage, nil
	}
	results, err := s.c.Retriever.Retrieve(ctx, question, s.settings.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}
	chunks := make([]domain.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	log.Debug("query", "session", s.id, "chunks", len(chunks))
	return s.c.Synthesizer.Synthesize(ctx, question, chunks)
}

// Summary summarizes every loaded document.
func (s *Session) Summary(ctx context.Context) (string, error) {
	return s.c.Synthesizer.Summarize(ctx, s.SummaryContext())
}

// SummaryContext returns the leading chunks of every document in upload order.
func (s *Session) SummaryContext() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk
	for _, name := range s.order {
		chunks := s.docs[name].Chunks
		if len(chunks) > s.settings.SummaryChunksPerDocument {
			chunks = chunks[:s.settings.SummaryChunksPerDocument]
		}
		out = append(out, chunks...)
	}
	return out
}

// Documents lists loaded documents in upload order.
func (s *Session) Documents() []DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DocumentInfo, 0, len(s.order))
	for _, name := range s.order {
		d := s.docs[name]
		out = append(out, DocumentInfo{
			Name:    d.Name,
			Pages:   d.Pages,
			Chunks:  len(d.Chunks),
			Preview: d.Preview,
			AddedAt: s.addedAt[name],
		})
	}
	return out
}

// CountStatus counts results with the given status.
func CountStatus(results []FileResult, status FileStatus) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Describe renders upload results as a short user-facing message.
func Describe(results []FileResult) string {
	var parts []string
	if n := CountStatus(results, StatusIngested); n > 0 {
		parts = append(parts, fmt.Sprintf("Processed %d new document(s)!", n))
	}
	for _, r := range results {
		if r.Status == StatusFailed {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Filename, UserMessage(r.Err)))
		}
	}
	if len(parts) == 0 {
		return "No new documents."
	}
	return strings.Join(parts, "\n")
}

// UserMessage turns an error into a message fit for display.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrEmptyQuery):
		return "Please enter a question."
	case errors.Is(err, domain.ErrUnsupportedFile):
		return "Only PDF files are supported."
	case errors.Is(err, domain.ErrParse):
		return "The file could not be read as a PDF."
	case errors.Is(err, domain.ErrEmbeddingService):
		return "The embedding service is unavailable right now. Please try again."
	case errors.Is(err, domain.ErrCompletionService):
		return "The language model is unavailable right now. Please try again."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled."
	default:
		return "Something went wrong: " + err.Error()
	}
}
