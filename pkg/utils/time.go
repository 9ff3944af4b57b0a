package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Now returns the current time in UTC timezone
func Now() time.Time {
	return time.Now().UTC()
}

// FormatISO8601 formats a time.Time to ISO8601 format in UTC
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// StartOfMonth truncates t to midnight on the first day of its month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthsBack returns the first day of the n months ending with the month of
// now, oldest first.
func MonthsBack(now time.Time, n int) []time.Time {
	months := make([]time.Time, 0, n)
	first := StartOfMonth(now)
	for i := n - 1; i >= 0; i-- {
		months = append(months, first.AddDate(0, -i, 0))
	}
	return months
}

var dayDatePattern = regexp.MustCompile(`^(\d{2})[-/](\d{2})[-/](\d{4})$`)

// ParseDayDate parses DD-MM-YYYY or DD/MM/YYYY into a UTC midnight time.
// Years outside 1900..2100 and impossible dates such as 31-02 are rejected.
func ParseDayDate(s string) (time.Time, error) {
	m := dayDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("date %q must be DD-MM-YYYY or DD/MM/YYYY", s)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1-31")
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1-12")
	}
	if year < 1900 || year > 2100 {
		return time.Time{}, fmt.Errorf("year must be between 1900-2100")
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// EndOfDay returns the last nanosecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
