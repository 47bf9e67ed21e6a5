package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/jarvislabs/kgraph/internal/kg/model"
)

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// typeInferenceThreshold is the fraction of sampled non-empty values
// that must convert for a column to take a non-string type.
const typeInferenceThreshold = 0.9

const sampleLimit = 100

func (p *FileParser) parseCSV(path string) (*model.ParseResult, error) {
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

	delimiter, err := detectDelimiter(text)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Reason: "inconsistent rows", Err: err}
	}
	if len(rows) < 2 {
		return nil, &ParseError{Reason: "no data rows"}
	}

	columns := rows[0]
	records := make([]model.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(model.Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}

	info, err := os.Stat(path)
	var size int64
	if err == nil {
		size = info.Size()
	}

	meta := model.Metadata{
		Filename:    filename(path),
		SizeBytes:   size,
		Encoding:    encoding,
		Delimiter:   string(delimiter),
		RowCount:    len(records),
		Columns:     columns,
		ColumnTypes: inferColumnTypes(columns, records),
		SampleRows:  sampleRows(records, 3),
	}

	return &model.ParseResult{Records: records, Metadata: meta}, nil
}

// decodeBytes detects the character encoding of raw and returns its
// UTF-8 text. Detection samples the first 10KB, like the original
// chardet-based parser.
func decodeBytes(raw []byte) (string, string, error) {
	sample := raw
	if len(sample) > 10*1024 {
		sample = sample[:10*1024]
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(sample)
	if err != nil {
		if utf8.Valid(raw) {
			return string(raw), "UTF-8", nil
		}
		return "", "", &ParseError{Reason: "unreadable encoding", Err: err}
	}

	switch result.Charset {
	case "UTF-8", "ISO-8859-1", "ISO-8859-15", "windows-1252", "ASCII":
	default:
		if !utf8.Valid(raw) {
			return "", "", &ParseError{Reason: fmt.Sprintf("unsupported encoding %s", result.Charset)}
		}
	}

	var decoded []byte
	switch result.Charset {
	case "ISO-8859-1", "ISO-8859-15":
		decoded, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
	case "windows-1252":
		decoded, err = charmap.Windows1252.NewDecoder().Bytes(raw)
	case "UTF-16LE":
		decoded, err = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(raw)
	case "UTF-16BE":
		decoded, err = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(raw)
	default:
		decoded = raw
	}
	if err != nil {
		return "", "", &ParseError{Reason: "failed to decode file", Err: err}
	}

	// Strip a UTF-8 BOM if present.
	decoded = bytes.TrimPrefix(decoded, []byte{0xEF, 0xBB, 0xBF})
	return string(decoded), result.Charset, nil
}

// detectDelimiter tries each candidate against a sample of the first
// rows and keeps the one that yields a consistent column count greater
// than one. Ambiguity is resolved in favor of more columns.
func detectDelimiter(text string) (rune, error) {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	sample := strings.Join(lines, "\n")

	best := rune(0)
	bestCols := 1
	for _, delim := range candidateDelimiters {
		r := csv.NewReader(strings.NewReader(sample))
		r.Comma = delim
		rows, err := r.ReadAll()
		if err != nil || len(rows) == 0 {
			continue // inconsistent column count or quoting
		}
		cols := len(rows[0])
		if cols > bestCols {
			best = delim
			bestCols = cols
		}
	}
	if best == 0 {
		return 0, &ParseError{Reason: "no delimiter yields a consistent column count"}
	}
	return best, nil
}

// inferColumnTypes picks the most specific type that converts for at
// least 90% of sampled non-empty values; columns below the threshold
// stay string.
func inferColumnTypes(columns []string, records []model.Record) map[string]string {
	types := make(map[string]string, len(columns))
	for _, col := range columns {
		values := make([]string, 0, sampleLimit)
		for _, rec := range records {
			if len(values) >= sampleLimit {
				break
			}
			if s, ok := rec[col].(string); ok && strings.TrimSpace(s) != "" {
				values = append(values, strings.TrimSpace(s))
			}
		}
		types[col] = inferType(values)
	}
	return types
}

func inferType(values []string) string {
	if len(values) == 0 {
		return "string"
	}

	if allBoolean(values) {
		return "boolean"
	}

	var ints, floats, dates int
	for _, v := range values {
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			ints++
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			floats++
		}
		if isDate(v) {
			dates++
		}
	}

	threshold := int(float64(len(values)) * typeInferenceThreshold)
	if threshold == 0 {
		threshold = 1
	}
	switch {
	case ints >= threshold:
		return "integer"
	case floats >= threshold:
		return "float"
	case dates >= threshold:
		return "date"
	default:
		return "string"
	}
}

func allBoolean(values []string) bool {
	for _, v := range values {
		switch strings.ToLower(v) {
		case "true", "false", "yes", "no":
		default:
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"Jan 2, 2006",
}

func isDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func sampleRows(records []model.Record, n int) []model.Record {
	if len(records) < n {
		n = len(records)
	}
	return records[:n]
}

func filename(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx != -1 {
		return path[idx+1:]
	}
	return path
}
