package domain

import (
	"testing"
	"time"
)

func TestMonthKey(t *testing.T) {
	at := time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC)
	if got := MonthKey(at); got != "2026-08" {
		t.Fatalf("MonthKey = %q, want 2026-08", got)
	}
	// Local-time inputs normalize to UTC before formatting.
	tokyo := time.FixedZone("JST", 9*3600)
	late := time.Date(2026, 9, 1, 5, 0, 0, 0, tokyo) // still Aug 31 in UTC
	if got := MonthKey(late); got != "2026-08" {
		t.Fatalf("MonthKey(local) = %q, want 2026-08", got)
	}
}

func TestValidMonthKey(t *testing.T) {
	valid := []string{"2026-01", "2026-09", "2026-10", "2026-12", "0001-01"}
	for _, s := range valid {
		if !ValidMonthKey(s) {
			t.Fatalf("ValidMonthKey(%q) = false", s)
		}
	}
	invalid := []string{"", "2026-13", "2026-00", "2026-1", "2026/01", "26-01", "2026-01-02", " 2026-01", "2026-01 "}
	for _, s := range invalid {
		if ValidMonthKey(s) {
			t.Fatalf("ValidMonthKey(%q) = true", s)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds("2026-08")
	if !start.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", end)
	}

	// December rolls into the next year.
	start, end = MonthBounds("2026-12")
	if start.Month() != time.December || end.Year() != 2027 || end.Month() != time.January {
		t.Fatalf("year rollover wrong: start=%v end=%v", start, end)
	}
}

func TestNextMonthStart(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 8, 15, 10, 4, 0, 0, time.UTC), time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := NextMonthStart(c.in); !got.Equal(c.want) {
			t.Fatalf("NextMonthStart(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
