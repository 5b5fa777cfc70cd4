package codec

import (
	"strconv"
	"strings"
	"time"
)

// Typed field conversion: §3 notes "all field values are strings on the
// wire; typed conversion is a codec service." These helpers use the
// comma-ok idiom throughout, the same shape as the teacher's
// coreengine/typeutil safe-assertion helpers, adapted from asserting an
// `any` JSON-decoded value to parsing a wire string against a FIX data type.

// AsInt parses a FIX int/length field.
func AsInt(value string) (int, bool) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AsIntDefault is AsInt with a fallback.
func AsIntDefault(value string, fallback int) int {
	if n, ok := AsInt(value); ok {
		return n
	}
	return fallback
}

// AsFloat parses a FIX float/decimal field.
func AsFloat(value string) (float64, bool) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AsBool parses a FIX boolean field: "Y" is true, "N" is false.
func AsBool(value string) (bool, bool) {
	switch value {
	case "Y":
		return true, true
	case "N":
		return false, true
	default:
		return false, false
	}
}

// FormatBool renders a Go bool as a FIX boolean field value.
func FormatBool(v bool) string {
	if v {
		return "Y"
	}
	return "N"
}

// AsChar parses a FIX char field: exactly one byte.
func AsChar(value string) (byte, bool) {
	if len(value) != 1 {
		return 0, false
	}
	return value[0], true
}

const utcTimestampLayout = "20060102-15:04:05"
const utcTimestampMillisLayout = "20060102-15:04:05.000"
const utcDateLayout = "20060102"
const monthYearLayout = "200601"

// AsUTCTimestamp parses a FIX UTCTimestamp field (tag 52 et al.), with or
// without the optional millisecond suffix.
func AsUTCTimestamp(value string) (time.Time, bool) {
	if strings.Contains(value, ".") {
		t, err := time.Parse(utcTimestampMillisLayout, value)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	t, err := time.Parse(utcTimestampLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatUTCTimestamp renders t as a FIX UTCTimestamp field value (no
// milliseconds, the common wire form).
func FormatUTCTimestamp(t time.Time) string {
	return t.UTC().Format(utcTimestampLayout)
}

// AsUTCDate parses a FIX UTCDate field.
func AsUTCDate(value string) (time.Time, bool) {
	t, err := time.Parse(utcDateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AsMonthYear parses a FIX MonthYear field.
func AsMonthYear(value string) (time.Time, bool) {
	t, err := time.Parse(monthYearLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
