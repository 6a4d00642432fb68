package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/domain"
)

func doc(text string) domain.Document {
	return domain.Document{ID: "report.pdf", Name: "report.pdf", Text: text, PageOffsets: []int{0}}
}

func TestNewBoundaryChunker(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewBoundaryChunker(0, -1)
		assert.Equal(t, DefaultChunkSize, c.Size())
		assert.Equal(t, 0, c.Overlap())
	})
	t.Run("overlap exceeds size", func(t *testing.T) {
		c := NewBoundaryChunker(100, 150)
		assert.Equal(t, 25, c.Overlap())
	})
}

func TestChunk_ShortTextIsSingleChunk(t *testing.T) {
	chunks, err := NewBoundaryChunker(1024, 20).Chunk(doc("Alpha Beta Gamma."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	ch := chunks[0]
	assert.Equal(t, "Alpha Beta Gamma.", ch.Text)
	assert.Equal(t, "report.pdf", ch.DocumentID)
	assert.Equal(t, "report.pdf#0", ch.ID)
	assert.Equal(t, 0, ch.Start)
	assert.Equal(t, len("Alpha Beta Gamma."), ch.End)
	assert.Equal(t, 1, ch.Page)
}

func TestChunk_BlankText(t *testing.T) {
	chunks, err := NewBoundaryChunker(10, 2).Chunk(doc(" \n\t "))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_PrefersSentenceBoundaries(t *testing.T) {
	text := "The first sentence is here. The second sentence follows it. A third one closes."
	chunks, err := NewBoundaryChunker(40, 0).Chunk(doc(text))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assert.Equal(t, "The first sentence is here. ", chunks[0].Text)
	for _, ch := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(ch.Text, " "), "chunk %q should end on a boundary", ch.Text)
	}
}

func TestChunk_PrefersPageBreaks(t *testing.T) {
	text := "Page one words. More words\fPage two."
	d := domain.Document{ID: "a.pdf", Text: text, PageOffsets: []int{0, strings.Index(text, "\f") + 1}}
	chunks, err := NewBoundaryChunker(30, 0).Chunk(d)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.True(t, strings.HasSuffix(chunks[0].Text, "\f"))
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, "Page two.", chunks[1].Text)
	assert.Equal(t, 2, chunks[1].Page)
}

func TestChunk_HardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 25)
	chunks, err := NewBoundaryChunker(10, 3).Chunk(doc(text))
	require.NoError(t, err)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 10)
	}
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 10, chunks[0].End)
	assert.Equal(t, 7, chunks[1].Start)
	assert.Equal(t, text, Reassemble(chunks))
}

func TestChunk_CoverageAndReassembly(t *testing.T) {
	texts := []string{
		"Alpha Beta Gamma.",
		strings.Repeat("Retrieval augmented generation needs chunks. ", 40),
		strings.Repeat("Paragraph text without stops", 30) + "\n\n" + strings.Repeat("tail ", 50),
		strings.Repeat("日本語のテキスト。", 80),
		"Page one.\fPage two has a bit more.\fPage three.",
	}
	configs := []struct{ size, overlap int }{{16, 0}, {64, 8}, {100, 20}, {1024, 20}}

	for _, text := range texts {
		for _, cfg := range configs {
			chunks, err := NewBoundaryChunker(cfg.size, cfg.overlap).Chunk(doc(text))
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			assert.Equal(t, 0, chunks[0].Start)
			assert.Equal(t, len(text), chunks[len(chunks)-1].End)
			for i, ch := range chunks {
				assert.Equal(t, i, ch.Index)
				assert.Equal(t, text[ch.Start:ch.End], ch.Text)
				assert.LessOrEqual(t, len(ch.Text), cfg.size)
				assert.True(t, utf8.ValidString(ch.Text))
				if i > 0 {
					prev := chunks[i-1]
					assert.Greater(t, ch.Start, prev.Start)
					assert.LessOrEqual(t, ch.Start, prev.End, "gap before chunk %d", i)
				}
			}
			assert.Equal(t, text, Reassemble(chunks))
		}
	}
}
