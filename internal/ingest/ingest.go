// Package ingest turns uploaded PDF bytes into chunked documents.
package ingest

import (
	"context"
	"fmt"
	"path"
	"strings"

	"docassist/internal/domain"
	"docassist/internal/extract/pdf"
	"docassist/internal/log"
)

// TextExtractor pulls page-delimited text out of raw file bytes.
type TextExtractor interface {
	Extract(data []byte) (pdf.Text, error)
}

// Ingestor extracts, chunks and previews a single file.
type Ingestor struct {
	extractor        TextExtractor
	chunker          domain.Chunker
	previewer        domain.Previewer
	previewSentences int
}

// New creates an ingestor. previewer may be nil to skip previews.
func New(extractor TextExtractor, chunker domain.Chunker, previewer domain.Previewer, previewSentences int) *Ingestor {
	return &Ingestor{extractor: extractor, chunker: chunker, previewer: previewer, previewSentences: previewSentences}
}

// IsPDF reports whether filename has a .pdf extension.
func IsPDF(filename string) bool {
	return strings.EqualFold(path.Ext(filename), ".pdf")
}

// Ingest parses data and returns the document with its ordered chunks.
// Unreadable files fail with domain.ErrParse.
func (i *Ingestor) Ingest(ctx context.Context, data []byte, filename string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	if !IsPDF(filename) {
		return domain.Document{}, fmt.Errorf("%s: %w", filename, domain.ErrUnsupportedFile)
	}
	text, err := i.extractor.Extract(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%s: %w", filename, err)
	}
	doc := domain.Document{
		ID:          filename,
		Name:        filename,
		Text:        text.Content,
		Pages:       text.Pages(),
		PageOffsets: text.PageOffsets,
	}
	chunks, err := i.chunker.Chunk(doc)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%s: chunk: %w", filename, err)
	}
	if len(chunks) == 0 {
		return domain.Document{}, fmt.Errorf("%s: %w: no extractable text", filename, domain.ErrParse)
	}
	doc.Chunks = chunks
	if i.previewer != nil {
		if preview, err := i.previewer.Summarize(doc.Text, i.previewSentences); err == nil {
			doc.Preview = preview
		}
	}
	log.Debug("document ingested", "file", filename, "pages", doc.Pages, "chunks", len(chunks))
	return doc, nil
}
