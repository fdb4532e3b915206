package core

import (
	"strconv"
	"strings"
	"time"
)

// Normalize returns a copy of rec with an Age field derived when possible.
//
// A record that already carries a non-empty Age is returned as-is. Otherwise
// the first non-empty birth-date column (DOB, then Date of Birth) is parsed
// and the computed age stored under Age. A missing or unparseable date is not
// an error: the record passes through without an Age field. Existing fields
// are never removed.
func Normalize(rec Record, now time.Time) Record {
	out := rec.Clone()

	if strings.TrimSpace(out[ColumnAge]) != "" {
		return out
	}

	raw := firstDOB(out)
	if raw == "" {
		return out
	}

	dob, ok := ParseDOB(raw)
	if !ok {
		return out
	}

	out[ColumnAge] = strconv.Itoa(Age(dob, now))
	return out
}

// firstDOB returns the value of the highest-priority non-empty birth-date
// column, or "" when the record has none.
func firstDOB(rec Record) string {
	for _, col := range dobColumns {
		if v := strings.TrimSpace(rec[col]); v != "" {
			return v
		}
	}
	return ""
}
