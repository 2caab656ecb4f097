// Package sequence splits page lines into sequence blocks and parses each
// block into an intermediate sequence record.
package sequence

import "bidpacket_parser/internal/patterns"

// SplitBlocks cuts a page's trimmed, non-blank lines into sequence
// blocks. A SEQ line flushes any open block and starts the next one; a
// line carrying the totals marker completes the open block immediately;
// end of input flushes whatever remains, totals line or not. Lines seen
// before the first SEQ belong to no block and are dropped.
func SplitBlocks(lines []string) [][]string {
	var blocks [][]string
	var current []string

	for _, line := range lines {
		if patterns.IsSequenceStart(line) {
			if len(current) > 0 {
				blocks = append(blocks, current)
			}
			current = []string{line}
			continue
		}
		if len(current) == 0 {
			continue
		}
		current = append(current, line)
		if patterns.HasTotals(line) {
			blocks = append(blocks, current)
			current = nil
		}
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}
