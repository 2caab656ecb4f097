package sequence

import (
	"regexp"
	"strconv"
	"strings"

	"bidpacket_parser/internal/bidpacket"
	"bidpacket_parser/internal/parsers/duty"
	"bidpacket_parser/internal/patterns"
)

var (
	// TTL 12.30
	ttlValueRe = regexp.MustCompile(`\bTTL\s+(\d+(?:\.\d+)?)`)

	// DUTY 9.15 or Duty 9.15
	dutyValueRe = regexp.MustCompile(`(?i)\bDUTY\s+(\d+(?:\.\d+)?)`)

	// BLK 8.00 or Blk 8.00
	blkValueRe = regexp.MustCompile(`(?i)\bBLK\s+(\d+(?:\.\d+)?)`)

	nonDigitRe = regexp.MustCompile(`\D`)
)

// Parse builds one sequence record from a block. The first line is the
// header; body lines up to the first totals line feed the duty grouper;
// the totals line supplies credit, duty hours and block hours. A block
// with no totals line treats its whole body as duty lines.
func Parse(block []string) bidpacket.SequenceRecord {
	rec := bidpacket.SequenceRecord{RawBlock: block}
	if len(block) == 0 {
		return rec
	}

	parseHeader(block[0], &rec)

	body := block[1:]
	dutyLines := body
	for i, line := range body {
		if patterns.HasTotals(line) {
			dutyLines = body[:i]
			rec.Totals = parseTotals(line)
			break
		}
	}
	rec.DutyDays = duty.Group(dutyLines)

	return rec
}

// parseHeader extracts the sequence number, instance count and position
// seats from a block's first line.
//
//	SEQ 1234 2 CA2 FO1
func parseHeader(header string, rec *bidpacket.SequenceRecord) {
	tokens := strings.Fields(header)
	if len(tokens) == 0 {
		return
	}

	var rest []string
	if len(tokens) >= 2 {
		rec.SequenceNumber = tokens[1]
		rest = tokens[2:]
	} else {
		rec.SequenceNumber = nonDigitRe.ReplaceAllString(tokens[0], "")
	}

	instancesSet := false
	for _, tok := range rest {
		if !instancesSet && patterns.NumericPattern.MatchString(tok) {
			if n, err := strconv.Atoi(tok); err == nil {
				rec.InstancesInMonth = n
				instancesSet = true
			}
			continue
		}
		if m := patterns.PositionPattern.FindStringSubmatch(tok); m != nil {
			if rec.Positions == nil {
				rec.Positions = make(map[string]int)
			}
			n, _ := strconv.Atoi(m[2])
			rec.Positions[m[1]] = n
		}
	}
}

// parseTotals reads the decimal-hour values off the totals line. Each
// marker is independently optional; a missing marker leaves that total
// unreported.
//
//	TTL 12.30 DUTY 9.15 BLK 8.00
func parseTotals(line string) bidpacket.SequenceTotals {
	var totals bidpacket.SequenceTotals
	if m := ttlValueRe.FindStringSubmatch(line); m != nil {
		totals.Credit = parseFloat(m[1])
	}
	if m := dutyValueRe.FindStringSubmatch(line); m != nil {
		totals.DutyHours = parseFloat(m[1])
	}
	if m := blkValueRe.FindStringSubmatch(line); m != nil {
		totals.BlockHours = parseFloat(m[1])
	}
	return totals
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
