// Package main provides a tool to export stored bid sequences to CSV format.
// The output loads into a spreadsheet for side-by-side sequence comparison:
// base,fleet,month,year,seq_number,position,length_days,instances,credit,total_duty,total_block,start_dates
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bidpacket_parser/internal/bidpacket"
	"bidpacket_parser/internal/storage"
)

func main() {
	storePath := flag.String("store", "bids.db", "SQLite store path")
	output := flag.String("output", "", "Output CSV file (default: stdout)")
	base := flag.String("base", "", "Filter by base")
	fleet := flag.String("fleet", "", "Filter by fleet")
	month := flag.String("month", "", "Filter by bid month")
	year := flag.Int("year", 0, "Filter by year")
	minDays := flag.Int("min-days", 0, "Minimum sequence length in days")
	header := flag.Bool("header", true, "Write a header row")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Parse()

	db, err := storage.OpenSQLite(*storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	packets, err := db.QueryPackets(storage.PacketQueryParams{
		Base:  strings.ToUpper(*base),
		Fleet: strings.ToUpper(*fleet),
		Month: strings.ToUpper(*month),
		Year:  *year,
		Limit: 100000,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying packets: %v\n", err)
		os.Exit(1)
	}
	if len(packets) == 0 {
		fmt.Fprintf(os.Stderr, "No packets found matching criteria\n")
		os.Exit(0)
	}

	var writer *csv.Writer
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = file.Close() }()
		writer = csv.NewWriter(file)
	} else {
		writer = csv.NewWriter(os.Stdout)
	}

	if *header {
		row := []string{"base", "fleet", "month", "year", "seq_number", "position",
			"length_days", "instances", "credit", "total_duty", "total_block", "start_dates"}
		if err := writer.Write(row); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing header: %v\n", err)
			os.Exit(1)
		}
	}

	exported := 0
	for i := range packets {
		p := &packets[i]
		sequences, err := db.SequencesForPacket(p.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error querying sequences: %v\n", err)
			os.Exit(1)
		}

		for j := range sequences {
			seq := &sequences[j]
			if seq.LengthDays < *minDays {
				continue
			}

			if err := writer.Write(sequenceRow(p, seq)); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing row: %v\n", err)
				os.Exit(1)
			}
			exported++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing CSV: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		dest := *output
		if dest == "" {
			dest = "stdout"
		}
		fmt.Fprintf(os.Stderr, "Wrote %d sequences from %d packets to %s\n", exported, len(packets), dest)
	}
}

// sequenceRow flattens one stored sequence into CSV fields. Start dates
// come from the sequence document and are joined with spaces.
func sequenceRow(p *storage.StoredPacket, seq *storage.StoredSequence) []string {
	var startDates string
	var s bidpacket.Sequence
	if err := json.Unmarshal([]byte(seq.SequenceJSON), &s); err == nil {
		startDates = strings.Join(s.Calendar.StartDates, " ")
	}

	return []string{
		p.Base,
		p.Fleet,
		p.Month,
		strconv.Itoa(p.Year),
		seq.SequenceNumber,
		seq.Position,
		strconv.Itoa(seq.LengthDays),
		strconv.Itoa(seq.Instances),
		seq.Credit,
		seq.TotalDuty,
		seq.TotalBlock,
		startDates,
	}
}
