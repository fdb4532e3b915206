package core

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportFileName is the fixed download name for filtered results.
const ExportFileName = "filtered_data.xlsx"

// BuildWorkbook serializes records into a single-sheet xlsx workbook:
// one header row in the given column order, then one row per record.
// Fields a record does not carry are written as empty cells.
func BuildWorkbook(columns []string, records []Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for r, rec := range records {
		for c, col := range columns {
			v, ok := rec[col]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r+2, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return buf.Bytes(), nil
}
