package chunker

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"docassist/internal/domain"
)

const (
	DefaultChunkSize    = 1024
	DefaultChunkOverlap = 20
)

// breaks are tried in order; the first one found in the back half of the window wins.
var breaks = [][]string{
	{"\f", "\n\n"},
	{". ", "! ", "? ", ".\n", "!\n", "?\n"},
	{"\n", " ", "\t"},
}

// BoundaryChunker splits text into chunks of at most size bytes overlapping by overlap bytes.
// Cuts prefer page and paragraph breaks, then sentence ends, then whitespace.
type BoundaryChunker struct {
	size    int
	overlap int
}

func NewBoundaryChunker(size, overlap int) *BoundaryChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &BoundaryChunker{size: size, overlap: overlap}
}

// Size returns the maximum chunk length in bytes.
func (c *BoundaryChunker) Size() int { return c.size }

// Overlap returns the number of bytes shared by adjacent chunks.
func (c *BoundaryChunker) Overlap() int { return c.overlap }

func (c *BoundaryChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	text := document.Text
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var chunks []domain.Chunk
	start := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.cut(text, start, end)
		}
		idx := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         document.ID + "#" + strconv.Itoa(idx),
			DocumentID: document.ID,
			Index:      idx,
			Start:      start,
			End:        end,
			Page:       document.PageAt(start),
			Text:       text[start:end],
		})
		if end == len(text) {
			break
		}
		next := runeStart(text, end-c.overlap)
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks, nil
}

// cut picks the end of a chunk starting at start, no later than limit.
func (c *BoundaryChunker) cut(text string, start, limit int) int {
	floor := start + c.size/2
	window := text[start:limit]
	for _, group := range breaks {
		best := -1
		for _, sep := range group {
			if i := strings.LastIndex(window, sep); i >= 0 && start+i+len(sep) > best {
				best = start + i + len(sep)
			}
		}
		if best > floor {
			return best
		}
	}
	end := runeStart(text, limit)
	if end <= start {
		// a single rune longer than the window
		_, w := utf8.DecodeRuneInString(text[start:])
		end = start + w
	}
	return end
}

// runeStart moves i back to the first byte of the rune containing it.
func runeStart(text string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(text) {
		return len(text)
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// Reassemble joins ordered chunks back into the text they were cut from, dropping overlaps.
func Reassemble(chunks []domain.Chunk) string {
	var sb strings.Builder
	covered := 0
	for _, ch := range chunks {
		if ch.End <= covered {
			continue
		}
		skip := covered - ch.Start
		if skip < 0 {
			skip = 0
		}
		sb.WriteString(ch.Text[skip:])
		covered = ch.End
	}
	return sb.String()
}
