// Package parser converts uploaded files into normalized record sets
// plus descriptive metadata. Parsing is pure and synchronous; the only
// side effect is reading the source file.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jarvislabs/kgraph/internal/kg/model"
)

// ParseError marks a malformed or undecodable source document. It is
// fatal to the pipeline run; retrying the same file is pointless.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// FileParser dispatches to the format-specific parsers.
type FileParser struct {
	ChunkSize    int
	ChunkOverlap int
}

func New(chunkSize, chunkOverlap int) *FileParser {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &FileParser{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

func (p *FileParser) Parse(path string, format model.DocumentFormat) (*model.ParseResult, error) {
	switch format {
	case model.FormatCSV:
		return p.parseCSV(path)
	case model.FormatJSON:
		return p.parseJSON(path)
	case model.FormatTXT:
		return p.parseText(path)
	case model.FormatPDF:
		return p.parsePDF(path)
	case model.FormatXLSX:
		return p.parseXLSX(path)
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unsupported format %q", format)}
	}
}

// DetectFormat infers a document format from the filename extension.
func DetectFormat(filename string) (model.DocumentFormat, bool) {
	idx := strings.LastIndexByte(filename, '.')
	if idx == -1 {
		return "", false
	}
	switch strings.ToLower(filename[idx+1:]) {
	case "csv", "tsv":
		return model.FormatCSV, true
	case "json":
		return model.FormatJSON, true
	case "txt", "text", "md":
		return model.FormatTXT, true
	case "pdf":
		return model.FormatPDF, true
	case "xlsx":
		return model.FormatXLSX, true
	}
	return "", false
}

// Chunk splits text into overlapping chunks of roughly ChunkSize
// characters, breaking on whitespace where possible.
func (p *FileParser) Chunk(text string) []string {
	if len(text) <= p.ChunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + p.ChunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		// Back up to the last space to avoid splitting a word.
		cut := end
		if idx := strings.LastIndexByte(text[start:end], ' '); idx > 0 {
			cut = start + idx
		}
		chunks = append(chunks, text[start:cut])

		// Advance from the actual cut, not a fixed step, so an early
		// word-boundary cut never skips the bytes before the next window.
		next := cut - p.ChunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// ChunkRecords wraps text chunks as records so the extraction agents
// can treat structured and text-like inputs uniformly.
func ChunkRecords(chunks []string) []model.Record {
	records := make([]model.Record, 0, len(chunks))
	for i, c := range chunks {
		records = append(records, model.Record{
			"chunk_index": int64(i),
			"text":        c,
		})
	}
	return records
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
