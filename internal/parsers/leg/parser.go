// Package leg parses flight-leg lines into positional fields.
package leg

import (
	"regexp"
	"strings"

	"bidpacket_parser/internal/bidpacket"
)

var (
	// E (or L, D, B, S) between departure time and arrival station
	mealRe = regexp.MustCompile(`^[A-Z]$`)

	// 1.15, 8, 12.30
	blockTimeRe = regexp.MustCompile(`^\d+(\.\d+)?`)
)

// Parse extracts positional fields from a line already classified as a
// flight leg. Tokens are consumed strictly left-to-right; when the line
// runs out of tokens the remaining fields stay empty. The meal and block
// time slots are lookaheads: they only consume a token that fits their
// shape, so short lines never shift later fields into them.
func Parse(line string) bidpacket.FlightLeg {
	tokens := strings.Fields(line)
	lg := bidpacket.FlightLeg{Raw: line}

	i := 0
	next := func() (string, bool) {
		if i >= len(tokens) {
			return "", false
		}
		tok := tokens[i]
		i++
		return tok, true
	}

	if tok, ok := next(); ok {
		lg.Day = tok
	}
	if tok, ok := next(); ok {
		lg.Date = tok
	}
	if tok, ok := next(); ok {
		lg.Equipment = tok
	}
	if tok, ok := next(); ok {
		lg.FlightNumber = tok
	}
	if tok, ok := next(); ok {
		lg.DepartureStation = tok
	}
	if tok, ok := next(); ok {
		lg.DepartureTime = tok
	}

	// A single uppercase letter here is a meal code, never a station or a time.
	if i < len(tokens) && mealRe.MatchString(tokens[i]) {
		lg.Meal = tokens[i]
		i++
	}

	if tok, ok := next(); ok {
		lg.ArrivalStation = tok
	}
	if tok, ok := next(); ok {
		lg.ArrivalTime = tok
	}

	if i < len(tokens) && blockTimeRe.MatchString(tokens[i]) {
		lg.BlockTime = tokens[i]
		i++
	}

	if i < len(tokens) {
		lg.Remarks = strings.Join(tokens[i:], " ")
	}

	return lg
}
