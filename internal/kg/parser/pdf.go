package parser

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jarvislabs/kgraph/internal/kg/model"
)

// parsePDF extracts plain text page by page. Pages that fail to extract
// are skipped; a document with no extractable text at all is a ParseError.
func (p *FileParser) parsePDF(path string) (*model.ParseResult, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &ParseError{Reason: "failed to open PDF", Err: err}
	}
	defer f.Close()

	totalPages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Reason: "no extractable text in PDF"}
	}

	info, _ := f.Stat()
	meta := model.Metadata{
		Filename:  filename(path),
		SizeBytes: info.Size(),
		CharCount: len(text),
		WordCount: countWords(text),
		PageCount: totalPages,
	}

	return &model.ParseResult{
		Metadata: meta,
		Text:     text,
	}, nil
}
