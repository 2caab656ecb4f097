// Command-line entry point for the bid packet parser.
//
// Usage:
//
//	bidpacket_parser parse [options]
//	bidpacket_parser stats [options]
//
// parse options:
//
//	-input FILE     Bid packet document (default: stdin)
//	-name NAME      Source document name recorded in the output (default: input file name)
//	-text           Treat the input as already-extracted text with form-feed page breaks
//	-output FILE    Output JSON file (default: stdout)
//	-pretty         Pretty-print JSON output
//	-store FILE     Record the packet in a SQLite store at this path
//	-sync           Upsert sequence summaries to PostgreSQL and ClickHouse
//	-publish        Publish the parsed packet to NATS
//	-nats-url URL   NATS server URL (default: env NATS_URL)
//	-stats          Print parse counters to stderr
//
// stats options:
//
//	-store FILE     SQLite store path (default: bids.db)
//	-pretty         Pretty-print JSON output (default: true)
//
// Connection settings for -sync follow the conventional environment
// variables (POSTGRES_HOST, POSTGRES_PORT, CLICKHOUSE_HOST, ...); a .env
// file in the working directory is loaded at startup.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bidpacket_parser/internal/assemble"
	"bidpacket_parser/internal/bidpacket"
	"bidpacket_parser/internal/config"
	"bidpacket_parser/internal/feed"
	"bidpacket_parser/internal/storage"
	"bidpacket_parser/internal/summary"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "bidpacket_parser - commands:")
	fmt.Fprintln(w, "  parse  - parse one bid packet document and output packet JSON")
	fmt.Fprintln(w, "  stats  - print statistics for a local packet store")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  bidpacket_parser parse -input packet.pdf [-name override.pdf] [-text] [-output out.json] [-pretty] [-store bids.db] [-sync] [-publish] [-stats]")
	fmt.Fprintln(w, "  bidpacket_parser stats -store bids.db")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Without -input, the document is read from stdin.")
	fmt.Fprintln(w, "  - -text skips PDF extraction and treats the input as page text with form-feed breaks.")
	fmt.Fprintln(w, "  - -sync and -publish read connection settings from the environment (.env is honored).")
	fmt.Fprintln(w, "")
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch strings.ToLower(os.Args[1]) {
	case "parse":
		runParse(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	inPath := fs.String("input", "", "Input bid packet document (default: stdin)")
	name := fs.String("name", "", "Source document name (default: input file name)")
	asText := fs.Bool("text", false, "Treat input as already-extracted text")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	storePath := fs.String("store", "", "Record the packet in a SQLite store at this path")
	syncSummaries := fs.Bool("sync", false, "Upsert sequence summaries to PostgreSQL and ClickHouse")
	publish := fs.Bool("publish", false, "Publish the parsed packet to NATS")
	natsURL := fs.String("nats-url", os.Getenv("NATS_URL"), "NATS server URL")
	showStats := fs.Bool("stats", false, "Print parse counters to stderr")
	_ = fs.Parse(args)

	data, sourceName, err := readInput(*inPath, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read input")
	}

	ctx := context.Background()

	var pkt *bidpacket.Packet
	if *asText {
		pkt = assemble.FromText(string(data), sourceName)
	} else {
		pkt, err = assemble.Parse(ctx, data, sourceName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse document")
		}
	}

	if *showStats {
		c := countPacket(pkt)
		fmt.Fprintf(os.Stderr,
			"stats: sequences=%d duties=%d legs=%d missing(dates=%d times=%d totals=%d)\n",
			c.Sequences, c.Duties, c.Legs, c.MissingDates, c.MissingTimes, c.MissingTotals)
	}

	enc, err := marshalJSON(pkt, *pretty)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode packet")
	}

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create output")
		}
		if _, err := f.Write(enc); err != nil {
			_ = f.Close()
			log.Fatal().Err(err).Msg("failed to write output")
		}
		if err := f.Close(); err != nil {
			log.Fatal().Err(err).Msg("failed to close output")
		}
	} else {
		_, _ = os.Stdout.Write(enc)
		_, _ = os.Stdout.Write([]byte("\n"))
	}

	if *storePath != "" {
		db, err := storage.OpenSQLite(*storePath)
		if err != nil {
			log.Fatal().Err(err).Str("store", *storePath).Msg("failed to open store")
		}
		id, err := db.InsertPacket(pkt)
		if err != nil {
			_ = db.Close()
			log.Fatal().Err(err).Msg("failed to store packet")
		}
		_ = db.Close()
		log.Info().Int64("packet_id", id).Str("store", *storePath).Msg("packet stored")
	}

	if *syncSummaries {
		cfg := config.Default()
		config.ApplyEnv(&cfg)

		db, err := storage.Open(ctx, cfg.Storage())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open summary databases")
		}
		if err := db.CreateSchemas(ctx); err != nil {
			_ = db.Close()
			log.Fatal().Err(err).Msg("failed to create summary schemas")
		}
		if err := summary.Sync(ctx, db, pkt); err != nil {
			_ = db.Close()
			log.Fatal().Err(err).Msg("failed to sync summaries")
		}
		_ = db.Close()
		log.Info().Int("sequences", len(pkt.Sequences)).Msg("summaries synced")
	}

	if *publish {
		pub, err := feed.Connect(*natsURL, "bidpacket_parser")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		if err := pub.PublishPacket(pkt); err != nil {
			_ = pub.Close()
			log.Fatal().Err(err).Msg("failed to publish packet")
		}
		_ = pub.Close()
		log.Info().Str("subject", feed.Subject(pkt)).Msg("packet published")
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	storePath := fs.String("store", "bids.db", "SQLite store path")
	pretty := fs.Bool("pretty", true, "Pretty-print JSON output")
	_ = fs.Parse(args)

	db, err := storage.OpenSQLite(*storePath)
	if err != nil {
		log.Fatal().Err(err).Str("store", *storePath).Msg("failed to open store")
	}
	defer db.Close()

	stats, err := db.GetStats()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read stats")
	}

	enc, err := marshalJSON(stats, *pretty)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode stats")
	}
	_, _ = os.Stdout.Write(enc)
	_, _ = os.Stdout.Write([]byte("\n"))
}

func readInput(path, nameOverride string) ([]byte, string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		name := nameOverride
		if name == "" {
			name = "stdin"
		}
		return data, name, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	name := nameOverride
	if name == "" {
		name = filepath.Base(path)
	}
	return data, name, nil
}

type parseCounters struct {
	Sequences     int
	Duties        int
	Legs          int
	MissingDates  int
	MissingTimes  int
	MissingTotals int
}

func countPacket(pkt *bidpacket.Packet) parseCounters {
	var c parseCounters
	c.Sequences = len(pkt.Sequences)
	for i := range pkt.Sequences {
		seq := &pkt.Sequences[i]
		if seq.Credit == nil {
			c.MissingTotals++
		}
		c.Duties += len(seq.Duties)
		for j := range seq.Duties {
			d := &seq.Duties[j]
			if d.Date == nil {
				c.MissingDates++
			}
			c.Legs += len(d.Legs)
			for k := range d.Legs {
				lg := &d.Legs[k]
				if lg.DepartureTime == nil || lg.ArrivalTime == nil {
					c.MissingTimes++
				}
			}
		}
	}
	return c
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
