package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// DetectFormat classifies a file by extension. Unsupported extensions
// return ErrUnsupportedFormat; the caller surfaces MsgUnsupportedFormat and
// leaves the current record set untouched.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		return FormatExcel, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
}

// Ingest parses an uploaded file into a Dataset of normalized records.
//
// The first row is the header; every later row is zipped positionally to the
// header names, so a short row simply lacks its trailing fields. Each raw
// record then passes through Normalize. A headers-only file yields a Dataset
// with zero records, which is not an error. Parse failures return an error
// and no Dataset so the caller can keep the prior record set.
func Ingest(fileName string, data []byte, now time.Time) (*Dataset, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = parseCSV(data)
	case FormatExcel:
		rows, err = parseExcel(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}

	if len(rows) == 0 {
		return &Dataset{FileName: fileName}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	ds := &Dataset{
		FileName: fileName,
		Columns:  header,
		Records:  make([]Record, 0, len(rows)-1),
	}

	ageDerived := false
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}

		raw := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				raw[col] = row[i]
			}
		}

		rec := Normalize(raw, now)
		if _, ok := rec[ColumnAge]; ok {
			ageDerived = true
		}
		ds.Records = append(ds.Records, rec)
	}

	// Surface a derived Age in the column order so table views and exports
	// include it. Files that already carry the column are left alone.
	if ageDerived && !containsColumn(ds.Columns, ColumnAge) {
		ds.Columns = append(ds.Columns, ColumnAge)
	}

	return ds, nil
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(sanitizeUTF8(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func parseExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// First sheet only.
	sheet := f.GetSheetName(0)
	return f.GetRows(sheet)
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune so
// the CSV reader never chokes on mixed encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func containsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
