package value

import (
	"fmt"
	"time"
)

// Date is a calendar date. A zero-value Date fails Check(); Reset
// produces the canonical invalid form.
type Date struct {
	Year, Month, Day int
	valid            bool
}

// Check reports whether d holds a valid, representable calendar date.
func (d Date) Check() bool { return d.valid }

// Reset returns the canonical invalid Date.
func (d Date) Reset() Date { return Date{} }

// NewDate constructs a Date, validating the calendar fields via the
// standard library (so "2021-02-29" is correctly rejected).
func NewDate(year, month, day int) Date {
	if month < 1 || month > 12 || day < 1 {
		return Date{}
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}
	}
	return Date{Year: year, Month: month, Day: day, valid: true}
}

func (d Date) String() string {
	if !d.valid {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// AsTime converts a valid Date to a UTC time.Time at midnight.
func (d Date) AsTime() (time.Time, bool) {
	if !d.valid {
		return time.Time{}, false
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC), true
}

// Time is a time-of-day value with sub-second precision.
type Time struct {
	Hour, Minute, Second, Nanosecond int
	valid                            bool
}

func (t Time) Check() bool { return t.valid }
func (t Time) Reset() Time { return Time{} }

// NewTime constructs a Time, validating field ranges.
func NewTime(hour, minute, second, nanosecond int) Time {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 60 ||
		nanosecond < 0 || nanosecond > 999999999 {
		return Time{}
	}
	return Time{Hour: hour, Minute: minute, Second: second, Nanosecond: nanosecond, valid: true}
}

func (t Time) String() string {
	if !t.valid {
		return ""
	}
	if t.Nanosecond == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%09d", t.Hour, t.Minute, t.Second, t.Nanosecond)
}

// Timestamp is a combined Date and Time with no time zone attached.
type Timestamp struct {
	Date Date
	Time Time
}

func (ts Timestamp) Check() bool { return ts.Date.Check() && ts.Time.Check() }
func (ts Timestamp) Reset() Timestamp {
	return Timestamp{}
}

func (ts Timestamp) String() string {
	if !ts.Check() {
		return ""
	}
	return ts.Date.String() + " " + ts.Time.String()
}

// AsTime converts a valid Timestamp to a UTC time.Time.
func (ts Timestamp) AsTime() (time.Time, bool) {
	if !ts.Check() {
		return time.Time{}, false
	}
	d, _ := ts.Date.AsTime()
	return time.Date(d.Year(), d.Month(), d.Day(), ts.Time.Hour, ts.Time.Minute, ts.Time.Second, ts.Time.Nanosecond, time.UTC), true
}

// TimestampTZ is a Timestamp with an explicit UTC offset, in minutes
// east of UTC.
type TimestampTZ struct {
	Timestamp    Timestamp
	OffsetMinute int
	hasOffset    bool
}

// NewTimestampTZ attaches a UTC offset to a Timestamp. offsetMinute must
// be within [-14*60, 14*60] to be considered valid (IANA's widest
// published offsets).
func NewTimestampTZ(ts Timestamp, offsetMinute int) TimestampTZ {
	if !ts.Check() || offsetMinute < -14*60 || offsetMinute > 14*60 {
		return TimestampTZ{}
	}
	return TimestampTZ{Timestamp: ts, OffsetMinute: offsetMinute, hasOffset: true}
}

func (tz TimestampTZ) Check() bool { return tz.hasOffset && tz.Timestamp.Check() }
func (tz TimestampTZ) Reset() TimestampTZ {
	return TimestampTZ{}
}

func (tz TimestampTZ) String() string {
	if !tz.Check() {
		return ""
	}
	sign := "+"
	m := tz.OffsetMinute
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%s%02d:%02d", tz.Timestamp.String(), sign, m/60, m%60)
}

// AsTime converts a valid TimestampTZ to a time.Time in a fixed-offset
// location.
func (tz TimestampTZ) AsTime() (time.Time, bool) {
	if !tz.Check() {
		return time.Time{}, false
	}
	t, _ := tz.Timestamp.AsTime()
	loc := time.FixedZone("", tz.OffsetMinute*60)
	return t.In(loc), true
}
