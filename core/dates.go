package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// sheetEpoch is day 0 of spreadsheet serial dates (serial 25569 = 1970-01-01).
var sheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var ErrUnparseableDate = errors.New("unparseable date")

// cell date layouts tried in order; non-padded layouts also accept padded values
var cellDateLayouts = []string{
	"2006-1-2",
	time.RFC3339,
	"2/1/2006",
	"2-1-2006",
	"2 Jan 2006",
}

// ParseCellDate parses a raw sheet cell into a midnight-normalized UTC date.
// Accepted forms: ISO dates, RFC3339 timestamps, DD/MM/YYYY (and variants), and
// spreadsheet serial numbers. Anything else is ErrUnparseableDate; callers must treat
// that as "absent", never as a default date.
func ParseCellDate(val string) (time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, ErrUnparseableDate
	}

	for _, layout := range cellDateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return Midnight(t.UTC()), nil
		}
	}

	// spreadsheet serial date; the fraction is time-of-day and is dropped
	if serial, err := strconv.ParseFloat(val, 64); err == nil {
		if serial < 1 || serial > 200000 { // not a plausible date
			return time.Time{}, ErrUnparseableDate
		}
		return sheetEpoch.AddDate(0, 0, int(serial)), nil
	}

	return time.Time{}, ErrUnparseableDate
}

// Midnight truncates t to the start of its day. All day-granularity comparisons in the
// timeline/delay logic must go through this to avoid off-by-one errors from clock skew.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddMonths shifts t by the given number of calendar months.
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// DaysBetween returns the whole number of days from `from` to `to` at day granularity.
// Negative when `to` precedes `from`.
func DaysBetween(from, to time.Time) int {
	return int(Midnight(to).Sub(Midnight(from)).Hours() / 24)
}
