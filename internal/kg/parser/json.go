package parser

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"

	"github.com/jarvislabs/kgraph/internal/kg/model"
)

// parseJSON accepts a single object or an array of objects and
// normalizes both into a uniform record list.
func (p *FileParser) parseJSON(path string) (*model.ParseResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Reason: "failed to read file", Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ParseError{Reason: "empty file"}
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ParseError{Reason: "unparseable JSON structure", Err: err}
	}

	var records []model.Record
	switch v := payload.(type) {
	case map[string]any:
		records = []model.Record{model.Record(v)}
	case []any:
		records = make([]model.Record, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				records = append(records, model.Record(obj))
			} else {
				records = append(records, model.Record{"value": item})
			}
		}
	default:
		return nil, &ParseError{Reason: "JSON root must be an object or an array of objects"}
	}

	if len(records) == 0 {
		return nil, &ParseError{Reason: "no records in JSON array"}
	}

	columns := unionKeys(records)
	meta := model.Metadata{
		Filename:    filename(path),
		SizeBytes:   int64(len(raw)),
		RowCount:    len(records),
		Columns:     columns,
		ColumnTypes: jsonColumnTypes(columns, records),
		SampleRows:  sampleRows(records, 3),
	}

	return &model.ParseResult{Records: records, Metadata: meta}, nil
}

// jsonColumnTypes reports the JSON type observed per key, so the
// extraction prompt's schema section has a type for every column.
// Keys whose values disagree across records are "mixed".
func jsonColumnTypes(columns []string, records []model.Record) map[string]string {
	types := make(map[string]string, len(columns))
	for _, col := range columns {
		current := ""
		for _, rec := range records {
			v, ok := rec[col]
			if !ok || v == nil {
				continue
			}
			vt := jsonType(v)
			if current == "" {
				current = vt
			} else if current != vt {
				current = "mixed"
				break
			}
		}
		if current == "" {
			current = "null"
		}
		types[col] = current
	}
	return types
}

func jsonType(v any) string {
	switch v.(type) {
	case float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "string"
	}
}

func unionKeys(records []model.Record) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
