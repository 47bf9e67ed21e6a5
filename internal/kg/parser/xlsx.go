package parser

import (
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/jarvislabs/kgraph/internal/kg/model"
)

// parseXLSX reads the first sheet, treating its first row as the
// header. Column types are inferred the same way as for CSV.
func (p *FileParser) parseXLSX(path string) (*model.ParseResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Reason: "failed to open XLSX", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Reason: "failed to read sheet", Err: err}
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
		RowCount:    len(records),
		Columns:     columns,
		ColumnTypes: inferColumnTypes(columns, records),
		SampleRows:  sampleRows(records, 3),
	}

	return &model.ParseResult{Records: records, Metadata: meta}, nil
}
