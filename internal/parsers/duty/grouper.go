// Package duty groups a sequence's duty-relevant lines into duty days.
//
// The grouper is a small state machine: at most one duty day is open at a
// time, and exactly two events close it early, a second report line or a
// leg whose day number disagrees with the established one. Release, hotel
// and free-text lines always attach to the open day because extraction
// noise can reorder them ahead of the report.
package duty

import (
	"strings"

	"bidpacket_parser/internal/bidpacket"
	"bidpacket_parser/internal/parsers/leg"
	"bidpacket_parser/internal/patterns"
)

// state is the duty day currently being formed, if any.
type state struct {
	open      *bidpacket.SequenceDutyDay
	dayNumber string // established by the first leg, empty until then
	hasReport bool
}

// Group consumes a sequence's duty source lines in order and returns its
// duty days in order of appearance. The final open day is flushed at end
// of input.
func Group(lines []string) []bidpacket.SequenceDutyDay {
	var days []bidpacket.SequenceDutyDay
	var st state

	for _, line := range lines {
		var done *bidpacket.SequenceDutyDay
		st, done = step(st, line)
		if done != nil {
			days = append(days, *done)
		}
	}
	if st.open != nil {
		days = append(days, *st.open)
	}
	return days
}

// step consumes one line and returns the next state plus a completed duty
// day when the line closed one. Line checks run report, leg, release,
// hotel, then free text, in that order.
func step(st state, line string) (state, *bidpacket.SequenceDutyDay) {
	switch {
	case patterns.IsReport(line):
		if st.open == nil {
			return openWithReport(line), nil
		}
		if st.hasReport {
			// A second report means a new duty period has begun.
			return openWithReport(line), st.open
		}
		st.open.ReportLine = line
		st.open.ReportTime = timeToken(line)
		st.hasReport = true
		return st, nil

	case patterns.IsFlightLeg(line):
		lg := leg.Parse(line)
		var flushed *bidpacket.SequenceDutyDay

		if st.open == nil {
			st = state{open: &bidpacket.SequenceDutyDay{}}
		} else if st.dayNumber != "" && lg.Day != st.dayNumber {
			flushed = st.open
			st = state{open: &bidpacket.SequenceDutyDay{}}
		}

		if st.dayNumber == "" {
			st.dayNumber = lg.Day
			st.open.DayNumber = lg.Day
		}
		if st.open.CalendarDay == "" && lg.Date != "" {
			st.open.CalendarDay = lg.Date
		}
		st.open.Legs = append(st.open.Legs, lg)
		return st, flushed

	case patterns.IsRelease(line):
		if st.open == nil {
			st = state{open: &bidpacket.SequenceDutyDay{}}
		}
		st.open.ReleaseLine = line
		st.open.ReleaseTime = timeToken(line)
		return st, nil

	case patterns.IsHotel(line):
		if st.open == nil {
			st = state{open: &bidpacket.SequenceDutyDay{}}
		}
		st.open.HotelLine = line
		return st, nil

	default:
		// Free text attaches to the open day; with no day open there is
		// nothing to attach it to and the line is dropped.
		if st.open == nil {
			return st, nil
		}
		if st.open.Summary == "" {
			st.open.Summary = line
		} else {
			st.open.Summary += " | " + line
		}
		return st, nil
	}
}

func openWithReport(line string) state {
	return state{
		open: &bidpacket.SequenceDutyDay{
			ReportLine: line,
			ReportTime: timeToken(line),
		},
		hasReport: true,
	}
}

// timeToken returns the raw HHMM or HHMM/HHMM token following the RPT or
// RLS keyword.
func timeToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
