package sequence

import (
	"reflect"
	"testing"

	"bidpacket_parser/internal/patterns"
)

func TestParse(t *testing.T) {
	block := []string{
		"SEQ 1234 2 CA2 FO1",
		"RPT 0600",
		"1 12/25 737 1234 BOS 0700 E LGA 0815 1.15",
		"RLS 0900",
		"TTL 12.30 DUTY 9.15 BLK 8.00",
	}

	rec := Parse(block)

	if rec.SequenceNumber != "1234" {
		t.Errorf("SequenceNumber = %q, want %q", rec.SequenceNumber, "1234")
	}
	if rec.InstancesInMonth != 2 {
		t.Errorf("InstancesInMonth = %d, want 2", rec.InstancesInMonth)
	}
	wantPositions := map[string]int{"CA": 2, "FO": 1}
	if !reflect.DeepEqual(rec.Positions, wantPositions) {
		t.Errorf("Positions = %v, want %v", rec.Positions, wantPositions)
	}

	if rec.Totals.Credit == nil || *rec.Totals.Credit != 12.30 {
		t.Errorf("Totals.Credit = %v, want 12.30", rec.Totals.Credit)
	}
	if rec.Totals.DutyHours == nil || *rec.Totals.DutyHours != 9.15 {
		t.Errorf("Totals.DutyHours = %v, want 9.15", rec.Totals.DutyHours)
	}
	if rec.Totals.BlockHours == nil || *rec.Totals.BlockHours != 8.00 {
		t.Errorf("Totals.BlockHours = %v, want 8.00", rec.Totals.BlockHours)
	}

	if len(rec.DutyDays) != 1 {
		t.Fatalf("expected 1 duty day, got %d", len(rec.DutyDays))
	}
	if rec.DutyDays[0].ReportTime != "0600" {
		t.Errorf("ReportTime = %q, want %q", rec.DutyDays[0].ReportTime, "0600")
	}
	if len(rec.DutyDays[0].Legs) != 1 {
		t.Errorf("legs = %d, want 1", len(rec.DutyDays[0].Legs))
	}
	if len(rec.RawBlock) != len(block) {
		t.Errorf("RawBlock lines = %d, want %d", len(rec.RawBlock), len(block))
	}
}

func TestParse_NoTotalsLine(t *testing.T) {
	block := []string{
		"SEQ 555 1 CA1",
		"RPT 0700",
		"1 1/10 320 88 ORD 0800 DEN 1015 2.15",
	}

	rec := Parse(block)
	if rec.SequenceNumber != "555" {
		t.Errorf("SequenceNumber = %q, want %q", rec.SequenceNumber, "555")
	}
	if rec.Totals.Credit != nil || rec.Totals.DutyHours != nil || rec.Totals.BlockHours != nil {
		t.Errorf("Totals = %+v, want all nil", rec.Totals)
	}
	if len(rec.DutyDays) != 1 {
		t.Fatalf("expected 1 duty day, got %d", len(rec.DutyDays))
	}
}

func TestParse_PartialTotals(t *testing.T) {
	rec := Parse([]string{"SEQ 7 1", "TTL 20.45"})

	if rec.Totals.Credit == nil || *rec.Totals.Credit != 20.45 {
		t.Errorf("Credit = %v, want 20.45", rec.Totals.Credit)
	}
	if rec.Totals.DutyHours != nil {
		t.Errorf("DutyHours = %v, want nil", rec.Totals.DutyHours)
	}
	if rec.Totals.BlockHours != nil {
		t.Errorf("BlockHours = %v, want nil", rec.Totals.BlockHours)
	}
}

func TestParseHeader_SingleToken(t *testing.T) {
	rec := Parse([]string{"SEQ#9876"})
	if rec.SequenceNumber != "9876" {
		t.Errorf("SequenceNumber = %q, want %q", rec.SequenceNumber, "9876")
	}
}

func TestParseHeader_RepeatedPositionLastWins(t *testing.T) {
	rec := Parse([]string{"SEQ 100 3 CA1 CA2 FO1"})
	if rec.Positions["CA"] != 2 {
		t.Errorf("Positions[CA] = %d, want 2", rec.Positions["CA"])
	}
	if rec.InstancesInMonth != 3 {
		t.Errorf("InstancesInMonth = %d, want 3", rec.InstancesInMonth)
	}
}

func TestParseHeader_FirstNumericWins(t *testing.T) {
	rec := Parse([]string{"SEQ 100 CA1 4 9"})
	if rec.InstancesInMonth != 4 {
		t.Errorf("InstancesInMonth = %d, want 4", rec.InstancesInMonth)
	}
}

func TestSplitBlocks(t *testing.T) {
	lines := []string{
		"EFFECTIVE DEC 2025", // before any SEQ, dropped
		"SEQ 100 1 CA1",
		"RPT 0600",
		"TTL 5.00",
		"PAGE FOOTER NOISE", // after a closed block, dropped
		"SEQ 200 2 FO1",
		"RPT 0700",
		"SEQ 300 1 CA1", // starts without 200 ever seeing TTL
		"RPT 0800",
	}

	blocks := SplitBlocks(lines)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0][0] != "SEQ 100 1 CA1" || len(blocks[0]) != 3 {
		t.Errorf("blocks[0] = %v", blocks[0])
	}
	if blocks[1][0] != "SEQ 200 2 FO1" || len(blocks[1]) != 2 {
		t.Errorf("blocks[1] = %v", blocks[1])
	}
	if blocks[2][0] != "SEQ 300 1 CA1" || len(blocks[2]) != 2 {
		t.Errorf("blocks[2] = %v", blocks[2])
	}
}

func TestSplitBlocks_TrailingWithoutTotals(t *testing.T) {
	blocks := SplitBlocks([]string{"SEQ 1 1 CA1", "RPT 0600"})
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if len(blocks[0]) != 2 {
		t.Errorf("block length = %d, want 2", len(blocks[0]))
	}
}

func TestSplitBlocks_Empty(t *testing.T) {
	if blocks := SplitBlocks(nil); len(blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(blocks))
	}
	if blocks := SplitBlocks(patterns.Lines("  \n \n")); len(blocks) != 0 {
		t.Errorf("expected no blocks from blank text, got %d", len(blocks))
	}
}
