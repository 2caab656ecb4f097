package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool for summary storage.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	-- One row per published bid packet, keyed by bid period.
	CREATE TABLE IF NOT EXISTS bid_packets (
		id                  SERIAL PRIMARY KEY,
		base                TEXT NOT NULL,
		fleet               TEXT NOT NULL,
		year                INTEGER NOT NULL,
		month               TEXT NOT NULL,
		bid_period_start    TEXT,
		bid_period_end      TEXT,
		source_document     TEXT,
		sequence_count      INTEGER NOT NULL DEFAULT 0,
		first_seen          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(base, fleet, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_bid_packets_base ON bid_packets(base);
	CREATE INDEX IF NOT EXISTS idx_bid_packets_period ON bid_packets(year, month);

	-- One row per sequence per bid period, refreshed on reparse.
	CREATE TABLE IF NOT EXISTS sequence_summaries (
		id                  SERIAL PRIMARY KEY,
		base                TEXT NOT NULL,
		fleet               TEXT NOT NULL,
		year                INTEGER NOT NULL,
		month               TEXT NOT NULL,
		seq_number          TEXT NOT NULL,
		position            TEXT,
		length_days         INTEGER,
		credit_minutes      INTEGER,
		duty_minutes        INTEGER,
		block_minutes       INTEGER,
		instances           INTEGER NOT NULL DEFAULT 0,
		start_dates         JSONB,
		observation_count   INTEGER NOT NULL DEFAULT 1,
		first_seen          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(base, fleet, year, month, seq_number)
	);

	CREATE INDEX IF NOT EXISTS idx_summaries_period ON sequence_summaries(base, fleet, year, month);
	CREATE INDEX IF NOT EXISTS idx_summaries_seq ON sequence_summaries(seq_number);
	`

	_, err := d.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	// Create partial index separately (IF NOT EXISTS syntax differs).
	_, _ = d.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_summaries_credit ON sequence_summaries(credit_minutes) WHERE credit_minutes IS NOT NULL`)

	return nil
}

// BidPacketRecord represents a bid packet row.
type BidPacketRecord struct {
	ID             int
	Base           string
	Fleet          string
	Year           int
	Month          string
	BidPeriodStart *string
	BidPeriodEnd   *string
	SourceDocument string
	SequenceCount  int
	FirstSeen      time.Time
	LastSeen       time.Time
}

// UpsertBidPacket inserts or updates a bid packet record, returning the packet ID.
func (d *PostgresDB) UpsertBidPacket(ctx context.Context, p BidPacketRecord) (int, error) {
	var id int
	err := d.pool.QueryRow(ctx, `
		INSERT INTO bid_packets (base, fleet, year, month, bid_period_start, bid_period_end, source_document, sequence_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (base, fleet, year, month) DO UPDATE SET
			bid_period_start = COALESCE(EXCLUDED.bid_period_start, bid_packets.bid_period_start),
			bid_period_end = COALESCE(EXCLUDED.bid_period_end, bid_packets.bid_period_end),
			source_document = EXCLUDED.source_document,
			sequence_count = EXCLUDED.sequence_count,
			last_seen = NOW()
		RETURNING id
	`, p.Base, p.Fleet, p.Year, p.Month, p.BidPeriodStart, p.BidPeriodEnd, p.SourceDocument, p.SequenceCount).Scan(&id)
	return id, err
}

// GetBidPacket retrieves a bid packet by its period key.
func (d *PostgresDB) GetBidPacket(ctx context.Context, base, fleet string, year int, month string) (*BidPacketRecord, error) {
	var p BidPacketRecord
	err := d.pool.QueryRow(ctx, `
		SELECT id, base, fleet, year, month, bid_period_start, bid_period_end, source_document, sequence_count, first_seen, last_seen
		FROM bid_packets WHERE base = $1 AND fleet = $2 AND year = $3 AND month = $4
	`, base, fleet, year, month).Scan(&p.ID, &p.Base, &p.Fleet, &p.Year, &p.Month,
		&p.BidPeriodStart, &p.BidPeriodEnd, &p.SourceDocument, &p.SequenceCount, &p.FirstSeen, &p.LastSeen)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SequenceSummary represents a per-sequence summary row.
type SequenceSummary struct {
	ID               int
	Base             string
	Fleet            string
	Year             int
	Month            string
	SequenceNumber   string
	Position         string
	LengthDays       int
	CreditMinutes    *int
	DutyMinutes      *int
	BlockMinutes     *int
	Instances        int
	StartDates       []string
	ObservationCount int
	FirstSeen        time.Time
	LastSeen         time.Time
}

// UpsertSequenceSummary inserts or updates a sequence summary record.
func (d *PostgresDB) UpsertSequenceSummary(ctx context.Context, s SequenceSummary) error {
	startDatesJSON, _ := json.Marshal(s.StartDates)

	_, err := d.pool.Exec(ctx, `
		INSERT INTO sequence_summaries (base, fleet, year, month, seq_number, position, length_days, credit_minutes, duty_minutes, block_minutes, instances, start_dates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (base, fleet, year, month, seq_number) DO UPDATE SET
			position = EXCLUDED.position,
			length_days = EXCLUDED.length_days,
			credit_minutes = COALESCE(EXCLUDED.credit_minutes, sequence_summaries.credit_minutes),
			duty_minutes = COALESCE(EXCLUDED.duty_minutes, sequence_summaries.duty_minutes),
			block_minutes = COALESCE(EXCLUDED.block_minutes, sequence_summaries.block_minutes),
			instances = EXCLUDED.instances,
			start_dates = EXCLUDED.start_dates,
			observation_count = sequence_summaries.observation_count + 1,
			last_seen = NOW()
	`, s.Base, s.Fleet, s.Year, s.Month, s.SequenceNumber, s.Position, s.LengthDays,
		s.CreditMinutes, s.DutyMinutes, s.BlockMinutes, s.Instances, startDatesJSON)
	return err
}

// GetSequenceSummary retrieves a sequence summary by its period key and sequence number.
func (d *PostgresDB) GetSequenceSummary(ctx context.Context, base, fleet string, year int, month, seqNumber string) (*SequenceSummary, error) {
	var s SequenceSummary
	var startDates []byte
	err := d.pool.QueryRow(ctx, `
		SELECT id, base, fleet, year, month, seq_number, position, length_days,
			credit_minutes, duty_minutes, block_minutes, instances, start_dates,
			observation_count, first_seen, last_seen
		FROM sequence_summaries
		WHERE base = $1 AND fleet = $2 AND year = $3 AND month = $4 AND seq_number = $5
	`, base, fleet, year, month, seqNumber).Scan(&s.ID, &s.Base, &s.Fleet, &s.Year, &s.Month,
		&s.SequenceNumber, &s.Position, &s.LengthDays,
		&s.CreditMinutes, &s.DutyMinutes, &s.BlockMinutes, &s.Instances, &startDates,
		&s.ObservationCount, &s.FirstSeen, &s.LastSeen)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(startDates) > 0 {
		if err := json.Unmarshal(startDates, &s.StartDates); err != nil {
			return nil, fmt.Errorf("unmarshal start dates: %w", err)
		}
	}

	return &s, nil
}

// ListSequenceSummaries retrieves all summaries for a bid period, ordered by sequence number.
func (d *PostgresDB) ListSequenceSummaries(ctx context.Context, base, fleet string, year int, month string) ([]SequenceSummary, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, base, fleet, year, month, seq_number, position, length_days,
			credit_minutes, duty_minutes, block_minutes, instances, start_dates,
			observation_count, first_seen, last_seen
		FROM sequence_summaries
		WHERE base = $1 AND fleet = $2 AND year = $3 AND month = $4
		ORDER BY seq_number
	`, base, fleet, year, month)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []SequenceSummary
	for rows.Next() {
		var s SequenceSummary
		var startDates []byte
		err := rows.Scan(&s.ID, &s.Base, &s.Fleet, &s.Year, &s.Month,
			&s.SequenceNumber, &s.Position, &s.LengthDays,
			&s.CreditMinutes, &s.DutyMinutes, &s.BlockMinutes, &s.Instances, &startDates,
			&s.ObservationCount, &s.FirstSeen, &s.LastSeen)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if len(startDates) > 0 {
			if err := json.Unmarshal(startDates, &s.StartDates); err != nil {
				return nil, fmt.Errorf("unmarshal start dates: %w", err)
			}
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}

// CountBidPackets returns the number of stored bid packets.
func (d *PostgresDB) CountBidPackets(ctx context.Context) (int, error) {
	var count int
	err := d.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bid_packets").Scan(&count)
	return count, err
}
