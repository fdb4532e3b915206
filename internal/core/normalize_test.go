package core

import (
	"testing"
	"time"
)

// fixedNow pins age arithmetic for tests: 15/06/1990 is exactly 34.
var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestNormalize_ExistingAgeKept(t *testing.T) {
	rec := Record{"Name": "Mani", "Age": "72", "DOB": "15/06/1990"}

	got := Normalize(rec, fixedNow)

	if got["Age"] != "72" {
		t.Errorf("Age = %q, want existing value %q kept", got["Age"], "72")
	}
}

func TestNormalize_DerivesFromDOB(t *testing.T) {
	rec := Record{"Name": "Mani", "DOB": "15/06/1990"}

	got := Normalize(rec, fixedNow)

	if got["Age"] != "34" {
		t.Errorf("Age = %q, want %q", got["Age"], "34")
	}
	if got["DOB"] != "15/06/1990" {
		t.Error("Normalize must not remove existing fields")
	}
}

func TestNormalize_DerivesFromDateOfBirth(t *testing.T) {
	rec := Record{"Name": "Mani", "Date of Birth": "14/06/1990"}

	got := Normalize(rec, fixedNow)

	if got["Age"] != "34" {
		t.Errorf("Age = %q, want %q", got["Age"], "34")
	}
}

func TestNormalize_DOBTakesPriority(t *testing.T) {
	rec := Record{
		"DOB":           "15/06/1990",
		"Date of Birth": "15/06/2000",
	}

	got := Normalize(rec, fixedNow)

	if got["Age"] != "34" {
		t.Errorf("Age = %q, want %q derived from DOB, not Date of Birth", got["Age"], "34")
	}
}

func TestNormalize_UnparseableDateLeavesAgeAbsent(t *testing.T) {
	tests := []Record{
		{"Name": "A", "DOB": "not a date"},
		{"Name": "B", "DOB": "15/06"},
		{"Name": "C"},
		{"Name": "D", "DOB": "   "},
	}

	for _, rec := range tests {
		got := Normalize(rec, fixedNow)
		if _, ok := got["Age"]; ok {
			t.Errorf("Normalize(%v) added Age = %q, want absent", rec, got["Age"])
		}
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	rec := Record{"Name": "Mani", "DOB": "15/06/1990"}

	_ = Normalize(rec, fixedNow)

	if _, ok := rec["Age"]; ok {
		t.Error("Normalize mutated its input record")
	}
}

func TestNormalize_EmptyAgeFallsThroughToDOB(t *testing.T) {
	rec := Record{"Age": "  ", "DOB": "15/06/1990"}

	got := Normalize(rec, fixedNow)

	if got["Age"] != "34" {
		t.Errorf("Age = %q, want %q derived despite blank Age cell", got["Age"], "34")
	}
}
