// Package assemble orchestrates a full bid packet parse: text extraction,
// page splitting, sequence parsing and final normalization.
package assemble

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"bidpacket_parser/internal/bidpacket"
	"bidpacket_parser/internal/clock"
	"bidpacket_parser/internal/extract"
	"bidpacket_parser/internal/parsers/bidmonth"
	"bidpacket_parser/internal/parsers/sequence"
	"bidpacket_parser/internal/patterns"
)

var (
	// BOS_737_DEC2025.pdf -> base BOS, fleet 737
	baseFleetRe = regexp.MustCompile(`([A-Za-z]{3})_(\d{3})`)

	formFeedRe = regexp.MustCompile(`\f+`)
)

// Parse extracts and parses one bid packet document using the default
// extraction service.
func Parse(ctx context.Context, document []byte, sourceName string) (*bidpacket.Packet, error) {
	return ParseWith(ctx, extract.Default(), document, sourceName)
}

// ParseWith is Parse with an explicit extraction service. Extraction
// failure is the only error a parse can return; every downstream gap
// degrades to absent fields instead.
func ParseWith(ctx context.Context, svc extract.Service, document []byte, sourceName string) (*bidpacket.Packet, error) {
	raw, err := svc.Extract(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", sourceName, err)
	}
	return FromText(raw, sourceName), nil
}

// FromText parses already-extracted packet text into the final record.
func FromText(raw, sourceName string) *bidpacket.Packet {
	pages := SplitPages(raw)
	month := bidmonth.Infer(pages, sourceName)

	pkt := &bidpacket.Packet{
		Metadata:  buildMetadata(month, sourceName),
		Sequences: []bidpacket.Sequence{},
	}

	for _, page := range pages {
		for _, block := range sequence.SplitBlocks(patterns.Lines(page)) {
			rec := sequence.Parse(block)
			pkt.Sequences = append(pkt.Sequences, normalizeSequence(rec, month))
		}
	}
	return pkt
}

// SplitPages splits raw extracted text into per-page texts: CRLF becomes
// LF, form-feed runs delimit pages, blank pages are dropped. When that
// leaves nothing, the whole raw text is treated as a single page.
func SplitPages(raw string) []string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	var pages []string
	for _, page := range formFeedRe.Split(text, -1) {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		return []string{text}
	}
	return pages
}

func buildMetadata(month bidmonth.Result, sourceName string) bidpacket.Metadata {
	meta := bidpacket.Metadata{
		Base:           "UNKNOWN",
		Fleet:          "UNKNOWN",
		Month:          month.Month,
		Year:           month.Year,
		SourceDocument: sourceName,
	}

	if m := baseFleetRe.FindStringSubmatch(sourceName); m != nil {
		meta.Base = strings.ToUpper(m[1])
		meta.Fleet = m[2]
	}

	if month.Known() {
		start := time.Date(month.Year, time.Month(month.MonthNum), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		s, e := start.Format("2006-01-02"), end.Format("2006-01-02")
		meta.BidPeriodStart, meta.BidPeriodEnd = &s, &e
	}
	return meta
}

// normalizeSequence maps one intermediate record into the final shape:
// 1-based indexes, ISO dates, HH:MM times, sorted start dates.
func normalizeSequence(rec bidpacket.SequenceRecord, month bidmonth.Result) bidpacket.Sequence {
	seq := bidpacket.Sequence{
		SequenceNumber:   rec.SequenceNumber,
		InstancesInMonth: rec.InstancesInMonth,
		Position:         positionLabel(rec.Positions),
		LengthDays:       len(rec.DutyDays),
		Credit:           clock.FromHours(rec.Totals.Credit),
		TotalDuty:        clock.FromHours(rec.Totals.DutyHours),
		TotalBlock:       clock.FromHours(rec.Totals.BlockHours),
		Duties:           make([]bidpacket.Duty, 0, len(rec.DutyDays)),
		Raw:              strings.Join(rec.RawBlock, "\n"),
	}

	startSet := make(map[string]bool)
	for i, day := range rec.DutyDays {
		d := bidpacket.Duty{
			DutyIndex: i + 1,
			DayNumber: day.DayNumber,
			Date:      clock.ResolveDate(day.CalendarDay, month.MonthNum, month.Year),
			Report:    clock.FromHHMM(day.ReportTime),
			Release:   clock.FromHHMM(day.ReleaseTime),
			Layover:   parseLayover(day.HotelLine),
			Summary:   day.Summary,
			Legs:      make([]bidpacket.Leg, 0, len(day.Legs)),
		}
		if d.Date != nil {
			startSet[*d.Date] = true
		}
		for j, lg := range day.Legs {
			d.Legs = append(d.Legs, normalizeLeg(lg, j+1, month))
		}
		seq.Duties = append(seq.Duties, d)
	}

	dates := make([]string, 0, len(startSet))
	for date := range startSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	seq.Calendar = bidpacket.Calendar{StartDates: dates}

	return seq
}

func normalizeLeg(lg bidpacket.FlightLeg, index int, month bidmonth.Result) bidpacket.Leg {
	return bidpacket.Leg{
		LegIndex:         index,
		Date:             clock.ResolveDate(lg.Date, month.MonthNum, month.Year),
		Equipment:        lg.Equipment,
		FlightNumber:     lg.FlightNumber,
		DepartureStation: lg.DepartureStation,
		DepartureTime:    clock.FromHHMM(lg.DepartureTime),
		Meal:             lg.Meal,
		ArrivalStation:   lg.ArrivalStation,
		ArrivalTime:      clock.FromHHMM(lg.ArrivalTime),
		Block:            clock.FromHoursToken(lg.BlockTime),
		Remarks:          lg.Remarks,
	}
}

// positionLabel renders the header's position codes sorted and
// space-joined. A header that named no positions reads Unknown.
func positionLabel(positions map[string]int) string {
	if len(positions) == 0 {
		return "Unknown"
	}
	codes := make([]string, 0, len(positions))
	for code := range positions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return strings.Join(codes, " ")
}

// parseLayover pulls station, hotel name and ground rest out of a raw
// hotel line:
//
//	LGA HYATT REGENCY HOTEL 12.30
//
// A leading 3-letter token is the station, a trailing decimal token is
// rest hours, the middle is the hotel name. Missing pieces stay absent;
// an empty line means no layover at all.
func parseLayover(line string) *bidpacket.Layover {
	if line == "" {
		return nil
	}

	rest := strings.Fields(line)
	lay := &bidpacket.Layover{}

	if len(rest) > 0 && patterns.StationPattern.MatchString(rest[0]) {
		lay.Station = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 && patterns.DecimalPattern.MatchString(rest[len(rest)-1]) {
		lay.Rest = clock.FromHoursToken(rest[len(rest)-1])
		rest = rest[:len(rest)-1]
	}
	lay.Hotel = strings.Join(rest, " ")
	return lay
}
