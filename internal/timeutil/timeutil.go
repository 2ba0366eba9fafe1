package timeutil

import (
	"fmt"
	"time"
)

// Telemetry timestamps come in two layouts depending on whether the source
// column carries milliseconds.
const (
	LayoutMillis = "2006-01-02 15:04:05.000"
	LayoutPlain  = "2006-01-02 15:04:05"
)

// ErrFormat is returned when a timestamp matches neither accepted layout.
var ErrFormat = fmt.Errorf("timeutil: unrecognized timestamp format")

// ParseTimestamp parses a telemetry timestamp string. It accepts
// "YYYY-MM-DD HH:MM:SS.mmm" and "YYYY-MM-DD HH:MM:SS".
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(LayoutMillis, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(LayoutPlain, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrFormat, s)
}

// TimeDiffSeconds parses both timestamps with the supplied layout and returns
// end minus start in seconds. Negative results are valid; the caller decides
// what to do with them.
func TimeDiffSeconds(startStr, endStr, layout string) (float64, error) {
	start, err := time.Parse(layout, startStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrFormat, startStr)
	}
	end, err := time.Parse(layout, endStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrFormat, endStr)
	}
	return end.Sub(start).Seconds(), nil
}

// DiffSeconds is TimeDiffSeconds for the default telemetry layouts.
func DiffSeconds(startStr, endStr string) (float64, error) {
	start, err := ParseTimestamp(startStr)
	if err != nil {
		return 0, err
	}
	end, err := ParseTimestamp(endStr)
	if err != nil {
		return 0, err
	}
	return end.Sub(start).Seconds(), nil
}

// IsWeekday reports whether the timestamp falls on Monday through Friday.
func IsWeekday(s string) (bool, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return false, err
	}
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday, nil
}

// HourOf returns the hour of day (0-23) of the timestamp.
func HourOf(s string) (int, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return 0, err
	}
	return t.Hour(), nil
}

// DateOf returns the calendar date ("YYYY-MM-DD") of the timestamp.
func DateOf(s string) (string, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}
