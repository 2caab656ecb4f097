// Package bidpacket provides bid packet record types and structures.
package bidpacket

// SequenceTotals holds the decimal-hour totals reported on a sequence's
// TTL line. Each value is optional: a missing marker means the packet did
// not report that total, not zero.
type SequenceTotals struct {
	Credit     *float64
	DutyHours  *float64
	BlockHours *float64
}

// SequenceRecord is the intermediate result of parsing one sequence block.
// Fields are best-effort: anything the block text did not yield stays at
// its zero value and is resolved to an absent value downstream.
type SequenceRecord struct {
	SequenceNumber   string
	InstancesInMonth int
	Positions        map[string]int // crew position code -> seat count, e.g. CA -> 2
	Totals           SequenceTotals
	DutyDays         []SequenceDutyDay
	RawBlock         []string // the block's source lines, header and totals included
}

// SequenceDutyDay is one duty period within a sequence, grouped from
// report/leg/release/hotel lines. Raw time tokens (HHMM or HHMM/HHMM) are
// kept unnormalized here.
type SequenceDutyDay struct {
	DayNumber   string // leading token of the day's first leg line
	CalendarDay string // raw D/D token from the first leg that carries one
	ReportLine  string
	ReportTime  string
	ReleaseLine string
	ReleaseTime string
	HotelLine   string
	Summary     string // unclassified lines, pipe-joined
	Legs        []FlightLeg
}

// FlightLeg is a positionally-parsed flight segment line. Every field is
// optional except Raw: token starvation leaves trailing fields empty.
type FlightLeg struct {
	Day              string
	Date             string // raw D/D token
	Equipment        string
	FlightNumber     string
	DepartureStation string
	DepartureTime    string // raw HHMM token
	Meal             string // single-letter meal code
	ArrivalStation   string
	ArrivalTime      string
	BlockTime        string // raw decimal hours token
	Remarks          string
	Raw              string
}
