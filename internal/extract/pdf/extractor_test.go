package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/domain"
)

// buildPDF writes a minimal uncompressed PDF with one line of text per page.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestExtract_SinglePage(t *testing.T) {
	text, err := NewExtractor().Extract(buildPDF("Alpha Beta Gamma."))
	require.NoError(t, err)

	assert.Equal(t, 1, text.Pages())
	assert.Equal(t, []int{0}, text.PageOffsets)
	assert.Contains(t, text.Content, "Alpha Beta Gamma.")
	assert.NotContains(t, text.Content, PageBreak)
}

func TestExtract_PagesAreDelimited(t *testing.T) {
	text, err := NewExtractor().Extract(buildPDF("First page.", "Second page."))
	require.NoError(t, err)

	require.Equal(t, 2, text.Pages())
	assert.Equal(t, 1, strings.Count(text.Content, PageBreak))
	first, second, _ := strings.Cut(text.Content, PageBreak)
	assert.Contains(t, first, "First page.")
	assert.Contains(t, second, "Second page.")
	assert.Equal(t, len(first)+len(PageBreak), text.PageOffsets[1])
}

func TestExtract_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not a pdf", data: []byte("hello, plain text")},
		{name: "truncated", data: []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewExtractor().Extract(tc.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrParse)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\nb\nc", normalize("a\r\nb\fc \n\t"))
}
