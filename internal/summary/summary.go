// Package summary flattens assembled bid packets into storage rows.
// These rows feed the PostgreSQL bid period tables and ClickHouse analytics.
package summary

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bidpacket_parser/internal/bidpacket"
	"bidpacket_parser/internal/storage"
)

// PacketRecord maps packet metadata onto a bid packet storage row.
func PacketRecord(pkt *bidpacket.Packet) storage.BidPacketRecord {
	return storage.BidPacketRecord{
		Base:           pkt.Metadata.Base,
		Fleet:          pkt.Metadata.Fleet,
		Year:           pkt.Metadata.Year,
		Month:          pkt.Metadata.Month,
		BidPeriodStart: pkt.Metadata.BidPeriodStart,
		BidPeriodEnd:   pkt.Metadata.BidPeriodEnd,
		SourceDocument: pkt.Metadata.SourceDocument,
		SequenceCount:  len(pkt.Sequences),
	}
}

// SequenceSummaries flattens every sequence in the packet into summary rows.
func SequenceSummaries(pkt *bidpacket.Packet) []storage.SequenceSummary {
	summaries := make([]storage.SequenceSummary, 0, len(pkt.Sequences))
	for _, seq := range pkt.Sequences {
		summaries = append(summaries, storage.SequenceSummary{
			Base:           pkt.Metadata.Base,
			Fleet:          pkt.Metadata.Fleet,
			Year:           pkt.Metadata.Year,
			Month:          pkt.Metadata.Month,
			SequenceNumber: seq.SequenceNumber,
			Position:       seq.Position,
			LengthDays:     seq.LengthDays,
			CreditMinutes:  minutes(seq.Credit),
			DutyMinutes:    minutes(seq.TotalDuty),
			BlockMinutes:   minutes(seq.TotalBlock),
			Instances:      seq.InstancesInMonth,
			StartDates:     seq.Calendar.StartDates,
		})
	}
	return summaries
}

// SequenceRows flattens every sequence into ClickHouse analytics rows.
func SequenceRows(pkt *bidpacket.Packet) []storage.CHSequenceParams {
	rows := make([]storage.CHSequenceParams, 0, len(pkt.Sequences))
	for i := range pkt.Sequences {
		seq := &pkt.Sequences[i]
		rows = append(rows, storage.CHSequenceParams{
			Base:           pkt.Metadata.Base,
			Fleet:          pkt.Metadata.Fleet,
			Year:           uint16(pkt.Metadata.Year),
			Month:          pkt.Metadata.Month,
			SequenceNumber: seq.SequenceNumber,
			Position:       seq.Position,
			LengthDays:     uint8(seq.LengthDays),
			Instances:      uint16(seq.InstancesInMonth),
			CreditMinutes:  minutes32(seq.Credit),
			DutyMinutes:    minutes32(seq.TotalDuty),
			BlockMinutes:   minutes32(seq.TotalBlock),
			StartDates:     seq.Calendar.StartDates,
			RawText:        seq.Raw,
			SequenceData:   seq,
		})
	}
	return rows
}

// Sync upserts the packet and its sequence summaries into PostgreSQL and
// inserts the flattened rows into ClickHouse. Empty packets are skipped.
func Sync(ctx context.Context, db *storage.DB, pkt *bidpacket.Packet) error {
	if len(pkt.Sequences) == 0 {
		return nil
	}

	if _, err := db.PG.UpsertBidPacket(ctx, PacketRecord(pkt)); err != nil {
		return fmt.Errorf("upsert bid packet: %w", err)
	}

	for _, s := range SequenceSummaries(pkt) {
		if err := db.PG.UpsertSequenceSummary(ctx, s); err != nil {
			return fmt.Errorf("upsert sequence %s: %w", s.SequenceNumber, err)
		}
	}

	if err := db.CH.InsertSequenceBatch(ctx, SequenceRows(pkt)); err != nil {
		return fmt.Errorf("insert sequence rows: %w", err)
	}

	return nil
}

// minutes converts a normalized HH:MM clock string into total minutes.
// Returns nil when the value is absent or malformed.
func minutes(clock *string) *int {
	if clock == nil {
		return nil
	}
	parts := strings.Split(*clock, ":")
	if len(parts) != 2 {
		return nil
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}
	total := hours*60 + mins
	return &total
}

func minutes32(clock *string) *int32 {
	m := minutes(clock)
	if m == nil {
		return nil
	}
	v := int32(*m)
	return &v
}
