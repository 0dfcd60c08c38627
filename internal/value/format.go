package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Formats use a small token vocabulary (YYYY, MM, DD, hh, mm, ss, and a
// literal everything else) rather than Go's reference-time layout or a
// strftime dialect, matching the style of format strings a dictionary
// attribute declares (spec.md §3, "per-type formatting metadata").
// Parsing/formatting primitives proper are out of scope (spec.md §1);
// this is the minimal concrete implementation the rule library needs to
// actually run.

type dateTimeFormat struct {
	tokens []formatToken
}

type formatToken struct {
	field   byte // 'Y','M','D','h','m','s', or 0 for literal
	width   int
	literal string
}

// parseFormat compiles a format string into tokens. The conversion
// functions below call it on every call; the result is not cached.
func parseFormat(format string) dateTimeFormat {
	var f dateTimeFormat
	i := 0
	n := len(format)
	for i < n {
		switch {
		case strings.HasPrefix(format[i:], "YYYY"):
			f.tokens = append(f.tokens, formatToken{field: 'Y', width: 4})
			i += 4
		case strings.HasPrefix(format[i:], "MM"):
			f.tokens = append(f.tokens, formatToken{field: 'M', width: 2})
			i += 2
		case strings.HasPrefix(format[i:], "DD"):
			f.tokens = append(f.tokens, formatToken{field: 'D', width: 2})
			i += 2
		case strings.HasPrefix(format[i:], "hh"):
			f.tokens = append(f.tokens, formatToken{field: 'h', width: 2})
			i += 2
		case strings.HasPrefix(format[i:], "mm"):
			f.tokens = append(f.tokens, formatToken{field: 'm', width: 2})
			i += 2
		case strings.HasPrefix(format[i:], "ss"):
			f.tokens = append(f.tokens, formatToken{field: 's', width: 2})
			i += 2
		default:
			f.tokens = append(f.tokens, formatToken{literal: string(format[i])})
			i++
		}
	}
	return f
}

type fieldSet struct {
	year, month, day, hour, minute, second int
	hasYear, hasMonth, hasDay               bool
	hasHour, hasMinute, hasSecond           bool
}

func parseWithFormat(s, format string) (fieldSet, bool) {
	f := parseFormat(format)
	var fs fieldSet
	pos := 0
	for _, tok := range f.tokens {
		if tok.field == 0 {
			if pos >= len(s) || s[pos] != tok.literal[0] {
				return fieldSet{}, false
			}
			pos++
			continue
		}
		if pos+tok.width > len(s) {
			return fieldSet{}, false
		}
		digits := s[pos : pos+tok.width]
		n, err := strconv.Atoi(digits)
		if err != nil {
			return fieldSet{}, false
		}
		pos += tok.width
		switch tok.field {
		case 'Y':
			fs.year, fs.hasYear = n, true
		case 'M':
			fs.month, fs.hasMonth = n, true
		case 'D':
			fs.day, fs.hasDay = n, true
		case 'h':
			fs.hour, fs.hasHour = n, true
		case 'm':
			fs.minute, fs.hasMinute = n, true
		case 's':
			fs.second, fs.hasSecond = n, true
		}
	}
	if pos != len(s) {
		return fieldSet{}, false
	}
	return fs, true
}

// ParseDate parses s per the given format into a Date. On failure the
// returned Date fails Check().
func ParseDate(s, format string) Date {
	fs, ok := parseWithFormat(s, format)
	if !ok || !fs.hasYear || !fs.hasMonth || !fs.hasDay {
		return Date{}
	}
	return NewDate(fs.year, fs.month, fs.day)
}

// ParseTime parses s per the given format into a Time.
func ParseTime(s, format string) Time {
	fs, ok := parseWithFormat(s, format)
	if !ok || !fs.hasHour || !fs.hasMinute {
		return Time{}
	}
	return NewTime(fs.hour, fs.minute, fs.second, 0)
}

// ParseTimestamp parses s per the given format into a Timestamp.
func ParseTimestamp(s, format string) Timestamp {
	fs, ok := parseWithFormat(s, format)
	if !ok || !fs.hasYear || !fs.hasMonth || !fs.hasDay || !fs.hasHour || !fs.hasMinute {
		return Timestamp{}
	}
	return Timestamp{Date: NewDate(fs.year, fs.month, fs.day), Time: NewTime(fs.hour, fs.minute, fs.second, 0)}
}

// ParseTimestampTZ parses s as "<timestamp-format>+hh:mm".
func ParseTimestampTZ(s, format string) TimestampTZ {
	sign := 1
	splitIdx := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '+' {
			splitIdx, sign = i, 1
			break
		}
		if s[i] == '-' && i > 0 {
			splitIdx, sign = i, -1
			break
		}
	}
	if splitIdx < 0 {
		return TimestampTZ{}
	}
	ts := ParseTimestamp(s[:splitIdx], format)
	offsetStr := s[splitIdx+1:]
	parts := strings.SplitN(offsetStr, ":", 2)
	if len(parts) != 2 {
		return TimestampTZ{}
	}
	hh, err1 := strconv.Atoi(parts[0])
	mm, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return TimestampTZ{}
	}
	return NewTimestampTZ(ts, sign*(hh*60+mm))
}

// FormatDate formats d per format; invalid d yields "".
func FormatDate(d Date, format string) string {
	if !d.Check() {
		return ""
	}
	return renderFormat(format, fieldSet{year: d.Year, month: d.Month, day: d.Day})
}

// FormatTime formats t per format; invalid t yields "".
func FormatTime(t Time, format string) string {
	if !t.Check() {
		return ""
	}
	return renderFormat(format, fieldSet{hour: t.Hour, minute: t.Minute, second: t.Second})
}

// FormatTimestamp formats ts per format; invalid ts yields "".
func FormatTimestamp(ts Timestamp, format string) string {
	if !ts.Check() {
		return ""
	}
	return renderFormat(format, fieldSet{
		year: ts.Date.Year, month: ts.Date.Month, day: ts.Date.Day,
		hour: ts.Time.Hour, minute: ts.Time.Minute, second: ts.Time.Second,
	})
}

// FormatTimestampTZ formats tz per format; invalid tz yields "".
func FormatTimestampTZ(tz TimestampTZ, format string) string {
	if !tz.Check() {
		return ""
	}
	base := FormatTimestamp(tz.Timestamp, format)
	sign := "+"
	m := tz.OffsetMinute
	if m < 0 {
		sign, m = "-", -m
	}
	return fmt.Sprintf("%s%s%02d:%02d", base, sign, m/60, m%60)
}

func renderFormat(format string, fs fieldSet) string {
	f := parseFormat(format)
	var sb strings.Builder
	for _, tok := range f.tokens {
		switch tok.field {
		case 'Y':
			fmt.Fprintf(&sb, "%04d", fs.year)
		case 'M':
			fmt.Fprintf(&sb, "%02d", fs.month)
		case 'D':
			fmt.Fprintf(&sb, "%02d", fs.day)
		case 'h':
			fmt.Fprintf(&sb, "%02d", fs.hour)
		case 'm':
			fmt.Fprintf(&sb, "%02d", fs.minute)
		case 's':
			fmt.Fprintf(&sb, "%02d", fs.second)
		default:
			sb.WriteString(tok.literal)
		}
	}
	return sb.String()
}
