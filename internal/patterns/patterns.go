// Package patterns provides shared regex patterns and helper functions for
// bid packet parsing.
package patterns

import (
	"regexp"
	"strings"
)

// Structural line patterns. Lines reach these already trimmed; blank lines
// never make it into a block.
var (
	// SEQ 1234 2 CA2 FO1
	SequenceStartPattern = regexp.MustCompile(`^SEQ\b`)

	// 1 12/25 737 1234 BOS 0700 E LGA 0815 1.15
	FlightLegPattern = regexp.MustCompile(`^\d+\s+\d+/\d+\s+\d+\s+\d+`)

	// RPT 0600 or RPT 0600/0610
	ReportPattern = regexp.MustCompile(`^RPT\b`)

	// RLS 0900 or RLS 0900/0915
	ReleasePattern = regexp.MustCompile(`^RLS\b`)

	// TTL 12.30 DUTY 9.15 BLK 8.00
	TotalsPattern = regexp.MustCompile(`\bTTL\b`)
)

// Field patterns shared across parsers.
var (
	// PositionPattern matches crew position count tokens: CA2, FO1, RL3, AP1, RS2.
	PositionPattern = regexp.MustCompile(`^(CA|FO|RL|AP|RS)(\d+)$`)

	// NumericPattern matches purely numeric tokens.
	NumericPattern = regexp.MustCompile(`^\d+$`)

	// DecimalPattern matches decimal hour tokens: 8, 8.00, 12.30.
	DecimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

	// StationPattern matches 3-letter station codes.
	StationPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// LineKind identifies the structural role a single packet line plays.
type LineKind int

const (
	LineOther LineKind = iota
	LineSequenceStart
	LineFlightLeg
	LineReport
	LineRelease
	LineHotel
	LineTotals
)

var lineKindNames = map[LineKind]string{
	LineOther:         "other",
	LineSequenceStart: "sequence_start",
	LineFlightLeg:     "flight_leg",
	LineReport:        "report",
	LineRelease:       "release",
	LineHotel:         "hotel",
	LineTotals:        "totals",
}

func (k LineKind) String() string {
	if name, ok := lineKindNames[k]; ok {
		return name
	}
	return "other"
}

// IsSequenceStart reports whether the line opens a new sequence block.
func IsSequenceStart(line string) bool { return SequenceStartPattern.MatchString(line) }

// IsFlightLeg reports whether the line has the minimum flight-leg shape:
// day number, D/D date token, then two more numeric-leading tokens.
func IsFlightLeg(line string) bool { return FlightLegPattern.MatchString(line) }

// IsReport reports whether the line is a duty report line.
func IsReport(line string) bool { return ReportPattern.MatchString(line) }

// IsRelease reports whether the line is a duty release line.
func IsRelease(line string) bool { return ReleasePattern.MatchString(line) }

// IsHotel reports whether the line carries layover hotel detail.
func IsHotel(line string) bool {
	return strings.Contains(strings.ToUpper(line), "HOTEL")
}

// HasTotals reports whether the line carries the sequence totals marker.
func HasTotals(line string) bool { return TotalsPattern.MatchString(line) }

// Classify returns the structural role of one trimmed, non-empty line.
// Callers with contextual ordering needs (the duty grouper checks report
// before leg) use the predicates directly; this priority order serves
// everyone else.
func Classify(line string) LineKind {
	switch {
	case IsSequenceStart(line):
		return LineSequenceStart
	case IsFlightLeg(line):
		return LineFlightLeg
	case IsReport(line):
		return LineReport
	case IsRelease(line):
		return LineRelease
	case IsHotel(line):
		return LineHotel
	case HasTotals(line):
		return LineTotals
	default:
		return LineOther
	}
}

// Lines splits page text into trimmed, non-blank lines in reading order.
func Lines(text string) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
