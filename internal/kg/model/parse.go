package model

// Record is one normalized row of source data. Values are scalars
// decoded by the parser (string, int64, float64, bool) or nil.
type Record map[string]any

// Metadata describes a parsed file for downstream prompting and reporting.
type Metadata struct {
	Filename    string            `json:"filename"`
	SizeBytes   int64             `json:"size_bytes"`
	Encoding    string            `json:"encoding,omitempty"`
	Delimiter   string            `json:"delimiter,omitempty"`
	RowCount    int               `json:"row_count"`
	Columns     []string          `json:"columns,omitempty"`
	ColumnTypes map[string]string `json:"column_types,omitempty"`
	SampleRows  []Record          `json:"sample_rows,omitempty"`

	// Text-like inputs.
	CharCount int `json:"char_count,omitempty"`
	WordCount int `json:"word_count,omitempty"`
	LineCount int `json:"line_count,omitempty"`
	PageCount int `json:"page_count,omitempty"`
}

// ParseResult is the parser's output: normalized records plus metadata.
// For text-like inputs Text carries the full extracted text and Records
// holds its chunked form.
type ParseResult struct {
	Records  []Record
	Metadata Metadata
	Text     string
}
