package parser

import (
	"bytes"
	"os"
	"strings"

	"github.com/jarvislabs/kgraph/internal/kg/model"
)

func (p *FileParser) parseText(path string) (*model.ParseResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Reason: "failed to read file", Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ParseError{Reason: "empty file"}
	}

	text, encoding, err := decodeBytes(raw)
	if err != nil {
		return nil, err
	}

	meta := model.Metadata{
		Filename:  filename(path),
		SizeBytes: int64(len(raw)),
		Encoding:  encoding,
		CharCount: len(text),
		WordCount: countWords(text),
		LineCount: strings.Count(text, "\n") + 1,
	}

	// Chunking into records happens downstream so the chunk settings
	// stay in one place.
	return &model.ParseResult{
		Metadata: meta,
		Text:     text,
	}, nil
}
