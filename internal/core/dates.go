package core

// dates.go provides birth-date parsing and whole-year age arithmetic.
//
// Input dates are day/month/year with ".", "-", or "/" as the separator.
// That field order is fixed: "03/04/1990" is the 3rd of April, never March 4
// and never year-first.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dobSeparators splits a date string on any of the accepted separators.
var dobSeparators = regexp.MustCompile(`[./-]`)

// ParseDOB interprets s as a day/month/year date.
//
// The text must split into exactly three numeric segments; anything else
// returns ok=false. Segment ranges are not validated: out-of-range values
// are normalized by time.Date's overflow rules, so month 13 rolls into
// January of the following year. Unvalidated segments mirror the tolerant
// ingestion contract; filtering on the resulting age is best-effort anyway.
func ParseDOB(s string) (time.Time, bool) {
	parts := dobSeparators.Split(strings.TrimSpace(s), -1)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// Age returns the number of completed years between dob and now.
//
// The anniversary is constructed with time.Date in the current year, so a
// February 29 birthday normalizes to March 1 in non-leap years and the age
// increments on March 1. No bounds checking: a future dob yields a negative
// age.
func Age(dob, now time.Time) int {
	years := now.Year() - dob.Year()

	anniversary := time.Date(now.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, now.Location())
	if now.Before(anniversary) {
		years--
	}

	return years
}
