package core

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day form used in query strings and forms.
const DateLayout = "2006-01-02"

// ParseDateParam parses a date filter value. A bare YYYY-MM-DD is read as that
// calendar day in loc; an RFC 3339 timestamp is converted into loc. An empty
// string yields the zero time and no error.
func ParseDateParam(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, ErrInvalidDate
}

// SameCalendarDay reports whether a and b fall on the same day in loc,
// ignoring the time of day.
func SameCalendarDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// FormatDate renders t as "Jan 15, 2024".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
