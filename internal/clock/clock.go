// Package clock converts raw packet hour and time tokens into normalized
// clock and date strings. Every conversion is best-effort: input that does
// not fit the expected shape yields nil, never an error.
package clock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FromHours converts decimal hours into an HH:MM clock string.
// 1.5 -> 01:30, 0 -> 00:00, 12.30 -> 12:18. Nil or non-finite input
// yields nil.
func FromHours(hours *float64) *string {
	if hours == nil || math.IsNaN(*hours) || math.IsInf(*hours, 0) {
		return nil
	}
	total := int(math.Round(*hours * 60))
	s := fmt.Sprintf("%02d:%02d", total/60, total%60)
	return &s
}

// FromHoursToken converts a decimal-hours token ("1.15", "8") into an
// HH:MM clock string. Empty or unparseable tokens yield nil.
func FromHoursToken(token string) *string {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	h, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return FromHours(&h)
}

// FromHHMM converts a raw HHMM token into an HH:MM clock string. Only the
// segment before any slash counts: "0600/0610" -> "06:00". 3-digit tokens
// are left-padded: "930" -> "09:30". Anything else yields nil.
func FromHHMM(token string) *string {
	seg := token
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	seg = strings.TrimSpace(seg)
	if len(seg) < 3 || len(seg) > 4 || !isDigits(seg) {
		return nil
	}
	if len(seg) == 3 {
		seg = "0" + seg
	}
	s := seg[:2] + ":" + seg[2:]
	return &s
}

// ResolveDate combines a raw calendar token ("12/25") with the inferred
// bid month and year into a YYYY-MM-DD date. The second slash-delimited
// number is the day of month when present and numeric, else the first.
// No extractable day, or a month outside 1-12, yields nil.
func ResolveDate(token string, monthNum, year int) *string {
	if monthNum < 1 || monthNum > 12 {
		return nil
	}

	parts := strings.Split(strings.TrimSpace(token), "/")
	day := 0
	if len(parts) >= 2 {
		if d, err := strconv.Atoi(parts[1]); err == nil {
			day = d
		}
	}
	if day == 0 && len(parts) >= 1 {
		if d, err := strconv.Atoi(parts[0]); err == nil {
			day = d
		}
	}
	if day < 1 {
		return nil
	}

	date := time.Date(year, time.Month(monthNum), day, 0, 0, 0, 0, time.UTC)
	s := date.Format("2006-01-02")
	return &s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
