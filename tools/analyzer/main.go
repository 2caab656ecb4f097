// Package main provides a parse coverage analyzer for stored bid packets.
// It reports field coverage, distribution across bases and fleets, and the
// recurring raw line shapes the parsers leave unclassified.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"bidpacket_parser/internal/bidpacket"
	"bidpacket_parser/internal/patterns"
	"bidpacket_parser/internal/storage"
)

func main() {
	storePath := flag.String("store", "bids.db", "SQLite store path")
	outputFormat := flag.String("format", "text", "Output format: text, json")
	topN := flag.Int("top", 20, "Show top N items in each category")
	base := flag.String("base", "", "Restrict field coverage and templates to one base")
	showTemplates := flag.Bool("templates", false, "Include unclassified line template analysis")

	flag.Parse()

	db, err := storage.OpenSQLite(*storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	records, err := loadSequences(db, strings.ToUpper(*base))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading sequences: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Analyzing %d sequences...\n", len(records))

	stats, err := db.GetStats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stats: %v\n", err)
		os.Exit(1)
	}

	report := &AnalysisReport{
		Summary:       *stats,
		FieldCoverage: analyzeFieldCoverage(records),
	}
	if *showTemplates {
		report.Templates = analyzeTemplates(records, *topN)
	}

	if *outputFormat == "json" {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
	} else {
		printTextReport(report, *topN)
	}
}

// AnalysisReport contains all analysis results.
type AnalysisReport struct {
	Summary       storage.Stats   `json:"summary"`
	FieldCoverage []FieldCoverage `json:"field_coverage"`
	Templates     []TemplateCount `json:"templates,omitempty"`
}

// FieldCoverage reports how often one parsed field resolved.
type FieldCoverage struct {
	Field   string  `json:"field"`
	Present int     `json:"present"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// TemplateCount is one masked line shape and its occurrence count.
type TemplateCount struct {
	Template string `json:"template"`
	Count    int    `json:"count"`
}

// seqRecord pairs a decoded sequence with its raw block text.
type seqRecord struct {
	parsed bidpacket.Sequence
	raw    string
}

func loadSequences(db *storage.SQLiteDB, base string) ([]seqRecord, error) {
	packets, err := db.QueryPackets(storage.PacketQueryParams{Base: base, Limit: 100000})
	if err != nil {
		return nil, err
	}

	var records []seqRecord
	for i := range packets {
		sequences, err := db.SequencesForPacket(packets[i].ID)
		if err != nil {
			return nil, err
		}
		for j := range sequences {
			var s bidpacket.Sequence
			if err := json.Unmarshal([]byte(sequences[j].SequenceJSON), &s); err != nil {
				continue
			}
			records = append(records, seqRecord{parsed: s, raw: sequences[j].RawText})
		}
	}
	return records, nil
}

func analyzeFieldCoverage(records []seqRecord) []FieldCoverage {
	var (
		seqTotal, credit, duty, block, position, startDates int
		dutyTotal, dutyDate, report, release                int
		legTotal, depTime, arrTime, legBlock                int
	)

	for i := range records {
		s := &records[i].parsed
		seqTotal++
		if s.Credit != nil {
			credit++
		}
		if s.TotalDuty != nil {
			duty++
		}
		if s.TotalBlock != nil {
			block++
		}
		if s.Position != "" && s.Position != "Unknown" {
			position++
		}
		if len(s.Calendar.StartDates) > 0 {
			startDates++
		}

		for j := range s.Duties {
			d := &s.Duties[j]
			dutyTotal++
			if d.Date != nil {
				dutyDate++
			}
			if d.Report != nil {
				report++
			}
			if d.Release != nil {
				release++
			}

			for k := range d.Legs {
				lg := &d.Legs[k]
				legTotal++
				if lg.DepartureTime != nil {
					depTime++
				}
				if lg.ArrivalTime != nil {
					arrTime++
				}
				if lg.Block != nil {
					legBlock++
				}
			}
		}
	}

	coverage := func(field string, present, total int) FieldCoverage {
		pct := 0.0
		if total > 0 {
			pct = float64(present) / float64(total) * 100
		}
		return FieldCoverage{Field: field, Present: present, Total: total, Percent: pct}
	}

	return []FieldCoverage{
		coverage("credit", credit, seqTotal),
		coverage("total_duty", duty, seqTotal),
		coverage("total_block", block, seqTotal),
		coverage("position", position, seqTotal),
		coverage("start_dates", startDates, seqTotal),
		coverage("duty.date", dutyDate, dutyTotal),
		coverage("duty.report", report, dutyTotal),
		coverage("duty.release", release, dutyTotal),
		coverage("leg.departure_time", depTime, legTotal),
		coverage("leg.arrival_time", arrTime, legTotal),
		coverage("leg.block", legBlock, legTotal),
	}
}

var digitRun = regexp.MustCompile(`\d+`)

// analyzeTemplates clusters the lines no parser claims by masking digit
// runs, surfacing recurring shapes worth a new pattern.
func analyzeTemplates(records []seqRecord, topN int) []TemplateCount {
	counts := make(map[string]int)
	for i := range records {
		for _, line := range patterns.Lines(records[i].raw) {
			if patterns.Classify(line) != patterns.LineOther {
				continue
			}
			template := digitRun.ReplaceAllString(line, "N")
			counts[template]++
		}
	}

	templates := make([]TemplateCount, 0, len(counts))
	for t, c := range counts {
		templates = append(templates, TemplateCount{Template: t, Count: c})
	}
	sort.Slice(templates, func(i, j int) bool {
		if templates[i].Count != templates[j].Count {
			return templates[i].Count > templates[j].Count
		}
		return templates[i].Template < templates[j].Template
	})
	if len(templates) > topN {
		templates = templates[:topN]
	}
	return templates
}

func printTextReport(report *AnalysisReport, topN int) {
	fmt.Println("Bid Packet Store Analysis")
	fmt.Println("─────────────────────────")
	fmt.Printf("Packets:   %d\n", report.Summary.TotalPackets)
	fmt.Printf("Sequences: %d\n", report.Summary.TotalSequences)

	fmt.Println("\nField Coverage:")
	fmt.Printf("%-20s %8s %8s %8s\n", "Field", "Present", "Total", "Percent")
	for _, fc := range report.FieldCoverage {
		fmt.Printf("%-20s %8d %8d %7.1f%%\n", fc.Field, fc.Present, fc.Total, fc.Percent)
	}

	printCounts("By Base", report.Summary.ByBase, topN)
	printCounts("By Fleet", report.Summary.ByFleet, topN)
	printCounts("By Month", report.Summary.ByMonth, topN)
	printCounts("By Position", report.Summary.ByPosition, topN)

	if len(report.Templates) > 0 {
		fmt.Println("\nUnclassified Line Templates:")
		fmt.Printf("%8s  %s\n", "Count", "Template")
		for _, t := range report.Templates {
			fmt.Printf("%8d  %s\n", t.Count, t.Template)
		}
	}
}

func printCounts(title string, counts map[string]int, topN int) {
	if len(counts) == 0 {
		return
	}

	type kv struct {
		key   string
		count int
	}
	sorted := make([]kv, 0, len(counts))
	for k, c := range counts {
		sorted = append(sorted, kv{k, c})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].key < sorted[j].key
	})
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}

	fmt.Printf("\n%s:\n", title)
	for _, e := range sorted {
		fmt.Printf("%8d  %s\n", e.count, e.key)
	}
}
