package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseThreshold parses the user-supplied minimum age. Empty, non-numeric
// and negative input is rejected with ErrMissingThreshold so the caller can
// surface MsgMissingThreshold and skip filtering.
func ParseThreshold(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingThreshold
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMissingThreshold, s)
	}

	return n, nil
}

// Filter returns the records whose effective age is at least minAge.
//
// The result is a stable subset: matching records keep the order of the
// input set. Records whose age cannot be determined are excluded. The input
// is never mutated and the whole set is recomputed on every call, so the
// operation is idempotent.
func Filter(records []Record, minAge int, now time.Time) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if age, ok := effectiveAge(rec, now); ok && age >= minAge {
			out = append(out, rec)
		}
	}
	return out
}

// effectiveAge resolves the age of a record at the time of filtering.
// A numeric Age field wins; otherwise the age is recomputed on the fly from
// the first non-empty birth-date column. Returns ok=false when neither
// yields a number.
func effectiveAge(rec Record, now time.Time) (int, bool) {
	if v := strings.TrimSpace(rec[ColumnAge]); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}

	raw := firstDOB(rec)
	if raw == "" {
		return 0, false
	}

	dob, ok := ParseDOB(raw)
	if !ok {
		return 0, false
	}

	return Age(dob, now), true
}
