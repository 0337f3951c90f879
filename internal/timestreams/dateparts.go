package timestreams

import (
	"fmt"
	"time"
)

// DateParts is a calendar date with an optional time of day. HasTime
// distinguishes "no time given" from an explicit midnight; everywhere else an
// absent time reads as zero.
type DateParts struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int

	HasTime bool
}

// Date returns the date-only parts for a calendar day.
func Date(year, month, day int) DateParts {
	return DateParts{Year: year, Month: month, Day: day}
}

// DatePartsFromTime decomposes t in UTC.
func DatePartsFromTime(t time.Time) DateParts {
	t = t.UTC()
	return DateParts{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
		HasTime: true,
	}
}

// Time returns the UTC instant for d. Out-of-range fields normalize the way
// time.Date does.
func (d DateParts) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
}

// DayOnly drops the time of day.
func (d DateParts) DayOnly() DateParts {
	return Date(d.Year, d.Month, d.Day)
}

// hasNonZeroTime reports whether a storage path for d needs a time segment.
func (d DateParts) hasNonZeroTime() bool {
	return d.Hour != 0 || d.Minute != 0 || d.Second != 0
}

// compact renders the day as YYYYMMDD; string order matches date order.
func (d DateParts) compact() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// String renders the day as YYYY-MM-DD, with the time appended when present.
func (d DateParts) String() string {
	s := fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	if d.HasTime {
		s += fmt.Sprintf("T%02d:%02d:%02dZ", d.Hour, d.Minute, d.Second)
	}
	return s
}

// SubtractDay steps one day back without consulting a calendar: the day
// before the 1st is always the 31st of the previous month, even when that
// month is shorter. Scanning over such days finds nothing and moves on.
func SubtractDay(d DateParts) DateParts {
	switch {
	case d.Day > 1:
		return Date(d.Year, d.Month, d.Day-1)
	case d.Month > 1:
		return Date(d.Year, d.Month-1, 31)
	default:
		return Date(d.Year-1, 12, 31)
	}
}
