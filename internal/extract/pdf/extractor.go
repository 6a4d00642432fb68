// Package pdf extracts plain text from PDF documents page by page.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"docassist/internal/domain"
)

// PageBreak separates the text of consecutive pages.
const PageBreak = "\f"

// Text is the extracted text of a document.
type Text struct {
	Content     string
	PageOffsets []int
}

// Pages returns the number of pages the text was extracted from.
func (t Text) Pages() int { return len(t.PageOffsets) }

// Extractor reads PDF bytes into page-delimited text.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract returns the text of every page joined by PageBreak.
// Any failure to read the file is reported as domain.ErrParse.
func (e *Extractor) Extract(data []byte) (text Text, err error) {
	if len(data) == 0 {
		return Text{}, fmt.Errorf("%w: empty file", domain.ErrParse)
	}
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text = Text{}
			err = fmt.Errorf("%w: %v", domain.ErrParse, r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Text{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	var sb strings.Builder
	n := reader.NumPage()
	if n == 0 {
		return Text{}, fmt.Errorf("%w: no pages", domain.ErrParse)
	}
	offsets := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		if i > 1 {
			sb.WriteString(PageBreak)
		}
		offsets = append(offsets, sb.Len())
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return Text{}, fmt.Errorf("%w: page %d: %v", domain.ErrParse, i, err)
		}
		sb.WriteString(normalize(content))
	}
	return Text{Content: sb.String(), PageOffsets: offsets}, nil
}

// normalize drops characters that would be mistaken for page breaks and trims trailing space.
func normalize(s string) string {
	s = strings.ReplaceAll(s, PageBreak, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimRight(s, " \t\n")
}
