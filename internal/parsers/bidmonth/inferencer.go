// Package bidmonth infers a packet's bid month and year from page texts
// and, as a last resort, the source file name.
package bidmonth

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is the inferred bid month. Month is a 3-letter abbreviation or
// UNKNOWN; MonthNum is 1-12, or 0 when unknown. Source names the matcher
// that resolved it.
type Result struct {
	Month    string
	MonthNum int
	Year     int
	Source   string
}

// Known reports whether a real month was inferred.
func (r Result) Known() bool { return r.MonthNum >= 1 && r.MonthNum <= 12 }

var monthAbbrevs = [...]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

var monthNums = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

var (
	// FDP CALENDAR 12/01-12/31
	fdpCalendarRe = regexp.MustCompile(`FDP\s+CALENDAR\s+(\S+)`)

	// first 4-digit number on a page, taken as the year
	yearRe = regexp.MustCompile(`\b(\d{4})\b`)

	// DECEMBER 2025
	fullMonthRe = regexp.MustCompile(`\b(JANUARY|FEBRUARY|MARCH|APRIL|MAY|JUNE|JULY|AUGUST|SEPTEMBER|OCTOBER|NOVEMBER|DECEMBER)\s+(\d{4})\b`)

	// 01DEC2025
	compactDateRe = regexp.MustCompile(`\b(\d{2})(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)(\d{4})\b`)

	// DEC 2025
	abbrevYearRe = regexp.MustCompile(`\b(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)\s+(\d{4})\b`)

	// BOS_737_DEC2025.pdf
	fileNameRe = regexp.MustCompile(`(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)(\d{4})`)
)

// matcher tries one textual cue. A nil result sends the chain to the next
// matcher. Ordering is precedence: calendar-header phrasing first, then
// increasingly loose cues, then the file name.
type matcher struct {
	name  string
	match func(pages []string, fileName string) *Result
}

var matchers = []matcher{
	{"fdp_calendar", matchFDPCalendar},
	{"full_month_name", matchFullMonthName},
	{"compact_date", matchCompactDate},
	{"month_abbrev_year", matchAbbrevYear},
	{"file_name", matchFileName},
}

// Infer resolves the bid month and year, trying each matcher in order and
// returning the first hit. When nothing matches, the month is the UNKNOWN
// sentinel and the year falls back to the current calendar year, the one
// wall-clock-dependent path in a parse.
func Infer(pages []string, fileName string) Result {
	upper := make([]string, len(pages))
	for i, p := range pages {
		upper[i] = strings.ToUpper(p)
	}
	name := strings.ToUpper(fileName)

	for _, m := range matchers {
		if r := m.match(upper, name); r != nil {
			r.Source = m.name
			return *r
		}
	}
	return Result{Month: "UNKNOWN", Year: time.Now().UTC().Year(), Source: "fallback"}
}

// matchFDPCalendar reads the month off an FDP CALENDAR header token; the
// year is the first 4-digit number on the same page. A calendar page with
// no year never matches, it does not guess.
func matchFDPCalendar(pages []string, _ string) *Result {
	for _, page := range pages {
		m := fdpCalendarRe.FindStringSubmatch(page)
		if m == nil {
			continue
		}

		seg := m[1]
		if i := strings.IndexAny(seg, "/-"); i >= 0 {
			seg = seg[:i]
		}
		if len(seg) > 2 {
			seg = seg[:2]
		}
		monthNum, err := strconv.Atoi(seg)
		if err != nil || monthNum < 1 || monthNum > 12 {
			continue
		}

		ym := yearRe.FindStringSubmatch(page)
		if ym == nil {
			continue
		}
		year, _ := strconv.Atoi(ym[1])

		return &Result{Month: monthAbbrevs[monthNum-1], MonthNum: monthNum, Year: year}
	}
	return nil
}

func matchFullMonthName(pages []string, _ string) *Result {
	for _, page := range pages {
		m := fullMonthRe.FindStringSubmatch(page)
		if m == nil {
			continue
		}
		abbrev := m[1][:3]
		year, _ := strconv.Atoi(m[2])
		return &Result{Month: abbrev, MonthNum: monthNums[abbrev], Year: year}
	}
	return nil
}

func matchCompactDate(pages []string, _ string) *Result {
	for _, page := range pages {
		m := compactDateRe.FindStringSubmatch(page)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[3])
		return &Result{Month: m[2], MonthNum: monthNums[m[2]], Year: year}
	}
	return nil
}

func matchAbbrevYear(pages []string, _ string) *Result {
	for _, page := range pages {
		m := abbrevYearRe.FindStringSubmatch(page)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[2])
		return &Result{Month: m[1], MonthNum: monthNums[m[1]], Year: year}
	}
	return nil
}

func matchFileName(_ []string, fileName string) *Result {
	m := fileNameRe.FindStringSubmatch(fileName)
	if m == nil {
		return nil
	}
	year, _ := strconv.Atoi(m[2])
	return &Result{Month: m[1], MonthNum: monthNums[m[1]], Year: year}
}
