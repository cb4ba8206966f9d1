// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/price-optimizer/pkg/constants"
)

const (
	// DateLayout is the format expected in history files and is also the output
	// date format.
	DateLayout = constants.DateLayout
)

// acceptedLayouts are tried in order when parsing history dates.
var acceptedLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = MustParseTime(DateLayout, "1899-12-30")

// MustParseTime parses a date string using the given layout and panics on error.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a date as found in sales history exports. ISO dates,
// timestamps, slash separated US dates and spreadsheet serial numbers are
// accepted.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// Format renders t in DateLayout, or an empty string for the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Calendar holds the calendar features of a single day.
type Calendar struct {
	Month      int
	DayOfWeek  int // Monday = 0
	DayOfMonth int
	IsWeekend  bool
}

// CalendarOf returns the calendar features of t. Weekdays count from Monday
// and Saturday and Sunday are weekend days.
func CalendarOf(t time.Time) Calendar {
	dow := (int(t.Weekday()) + 6) % 7
	return Calendar{
		Month:      int(t.Month()),
		DayOfWeek:  dow,
		DayOfMonth: t.Day(),
		IsWeekend:  dow >= 5,
	}
}
