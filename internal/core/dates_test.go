package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateParam(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	got, err := ParseDateParam("2024-01-15", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if y, m, d := got.Date(); y != 2024 || m != time.January || d != 15 || got.Location() != loc {
		t.Fatalf("unexpected date %v", got)
	}

	got, err = ParseDateParam("2024-03-20T02:30:00Z", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, d := got.Date(); d != 19 {
		t.Fatalf("expected timestamp converted into loc (day 19), got %v", got)
	}

	if got, err := ParseDateParam("  ", loc); err != nil || !got.IsZero() {
		t.Fatalf("empty param: got %v, %v", got, err)
	}
	if _, err := ParseDateParam("15/01/2024", loc); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestSameCalendarDay(t *testing.T) {
	a := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC)
	c := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	if !SameCalendarDay(a, b, time.UTC) {
		t.Fatalf("expected same day")
	}
	if SameCalendarDay(b, c, time.UTC) {
		t.Fatalf("expected different days")
	}
}

func TestFormatDate(t *testing.T) {
	tests := map[string]string{
		"2024-01-15": "Jan 15, 2024",
		"2024-12-25": "Dec 25, 2024",
		"2023-06-01": "Jun 1, 2023",
	}
	for in, want := range tests {
		d, _ := time.Parse(DateLayout, in)
		if got := FormatDate(d); got != want {
			t.Errorf("FormatDate(%s) = %q, want %q", in, got, want)
		}
	}
	ts, _ := time.Parse(time.RFC3339, "2024-03-20T10:30:00Z")
	if got := FormatDate(ts); got != "Mar 20, 2024" {
		t.Errorf("FormatDate(timestamp) = %q", got)
	}
	if FormatDate(time.Time{}) != "" {
		t.Errorf("zero time should format empty")
	}
}
