package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeOfDay anchors a server wall-clock "HH:MM:SS" string onto the local
// calendar date of now. Seconds default to 0 when omitted. The second return
// value is false for empty or malformed input.
//
// A time-of-day that belongs to another calendar date than now is anchored to
// now's date anyway; callers detect that case through negative elapsed values.
func ParseTimeOfDay(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return time.Time{}, false
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	second := 0
	if len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 {
			return time.Time{}, false
		}
	}

	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, second, 0, now.Location()), true
}

// ElapsedSeconds returns floor((b - a) / 1s). It returns 0 when either endpoint
// is the zero time. The result is not clamped: a negative value means a is
// after b.
func ElapsedSeconds(a, b time.Time) int64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	d := b.Sub(a)
	secs := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}
	return secs
}

// FormatHMS renders seconds as zero-padded HH:MM:SS. Hours are unbounded.
// Negative input renders with a leading minus sign.
func FormatHMS(seconds int64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

// FormatClock renders t as the 24-hour "HH:MM:SS" wall-clock string the
// gateway expects.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// FormatDate renders t as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
