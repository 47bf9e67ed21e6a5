package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvislabs/kgraph/internal/kg/model"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]model.DocumentFormat{
		"movies.csv":  model.FormatCSV,
		"data.TSV":    model.FormatCSV,
		"people.json": model.FormatJSON,
		"notes.txt":   model.FormatTXT,
		"README.md":   model.FormatTXT,
		"report.pdf":  model.FormatPDF,
		"sheet.xlsx":  model.FormatXLSX,
	}
	for name, want := range cases {
		got, ok := DetectFormat(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := DetectFormat("archive.zip")
	assert.False(t, ok)
	_, ok = DetectFormat("noextension")
	assert.False(t, ok)
}

func TestParseUnsupportedFormat(t *testing.T) {
	p := New(1000, 200)
	_, err := p.Parse("whatever", model.DocumentFormat("docx"))
	assert.True(t, IsParseError(err))
}

func TestChunkShortTextIsSingleChunk(t *testing.T) {
	p := New(1000, 200)
	chunks := p.Chunk("a short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short text", chunks[0])
}

func TestChunkOverlap(t *testing.T) {
	p := New(100, 20)
	text := strings.Repeat("word ", 100) // 500 chars

	chunks := p.Chunk(text)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
	// Consecutive chunks overlap, so joining without the overlap must
	// still cover the full text length.
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	assert.GreaterOrEqual(t, total, len(text)-len(chunks)*20)
}

func TestChunkCoversAllInput(t *testing.T) {
	p := New(100, 20)
	// A short word followed by one long unbroken token spanning several
	// windows: the early word-boundary cut must not skip the bytes
	// between the cut and the next window.
	text := "a " + strings.Repeat("x", 300)

	chunks := p.Chunk(text)
	require.Greater(t, len(chunks), 1)

	joined := strings.Join(chunks, "")
	assert.GreaterOrEqual(t, strings.Count(joined, "x"), 300)
}

func TestChunkKeepsEveryWord(t *testing.T) {
	p := New(50, 10)
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "w%02d ", i)
	}
	sb.WriteString(strings.Repeat("z", 120))
	text := sb.String()

	chunks := p.Chunk(text)
	joined := strings.Join(chunks, " ")
	for i := 0; i < 40; i++ {
		assert.Contains(t, joined, fmt.Sprintf("w%02d", i))
	}
	assert.GreaterOrEqual(t, strings.Count(joined, "z"), 120)
}

func TestChunkRecords(t *testing.T) {
	records := ChunkRecords([]string{"first", "second"})
	require.Len(t, records, 2)
	assert.Equal(t, int64(0), records[0]["chunk_index"])
	assert.Equal(t, "second", records[1]["text"])
}

func TestParseTextFile(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("Alice works at TechCorp.\nBob works at DataLab.\n"))

	p := New(1000, 200)
	result, err := p.Parse(path, model.FormatTXT)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Text)
	assert.Empty(t, result.Records)
	assert.Equal(t, 8, result.Metadata.WordCount)
	assert.Greater(t, result.Metadata.CharCount, 0)
}

func TestParseTextEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.txt", []byte("   \n  "))

	p := New(1000, 200)
	_, err := p.Parse(path, model.FormatTXT)
	assert.True(t, IsParseError(err))
}
