// Package core implements the age-derivation and filtering pipeline for
// uploaded spreadsheet and CSV files. It has no UI dependencies and can be
// driven by any frontend.
package core

// Recognized column headers. Matching is exact and case-sensitive; no
// synonyms are accepted beyond these three.
const (
	ColumnAge         = "Age"
	ColumnDOB         = "DOB"
	ColumnDateOfBirth = "Date of Birth"
)

// dobColumns lists the birth-date headers in priority order. The first
// non-empty one is used for age derivation.
var dobColumns = []string{ColumnDOB, ColumnDateOfBirth}

// Record is one data row of an uploaded file, keyed by column header.
// A row shorter than the header list simply lacks the trailing keys.
type Record map[string]string

// Clone returns an independent copy of the record. Derivation steps never
// mutate their input.
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset holds the ordered record set produced by one file ingestion.
// Columns preserves the header order of the source file; the Age column is
// appended when it was derived rather than present in the file.
type Dataset struct {
	FileName string
	Columns  []string
	Records  []Record
}

// Format identifies a supported input file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatExcel
)
