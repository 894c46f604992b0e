package domain

import (
	"regexp"
	"time"
)

// monthKeyRE validates the exact YYYY-MM shape used for metric lookups.
var monthKeyRE = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// MonthKey formats t (in UTC) as the canonical YYYY-MM metric key.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ValidMonthKey reports whether s matches the exact YYYY-MM shape.
// Keys must be validated before being used for lookups.
func ValidMonthKey(s string) bool {
	return monthKeyRE.MatchString(s)
}

// MonthBounds returns the first instant of the month named by key and the
// first instant of the following month, both in UTC. The caller must have
// validated key with ValidMonthKey.
func MonthBounds(key string) (start, end time.Time) {
	start, _ = time.Parse("2006-01", key)
	return start, start.AddDate(0, 1, 0)
}

// NextMonthStart returns the first instant of the calendar month after t,
// in UTC. Quota resets are anchored here, from server-observed time only.
func NextMonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
