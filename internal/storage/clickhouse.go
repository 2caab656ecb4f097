package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for sequence analytics.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS bid_sequences (
		base            LowCardinality(String),
		fleet           LowCardinality(String),
		year            UInt16,
		month           LowCardinality(String),
		seq_number      String,
		position        LowCardinality(String),
		length_days     UInt8,
		instances       UInt16,
		credit_minutes  Nullable(Int32),
		duty_minutes    Nullable(Int32),
		block_minutes   Nullable(Int32),
		start_dates     String,
		raw_text        String,
		sequence_json   String,
		created_at      DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY year
	ORDER BY (year, month, base, fleet, seq_number)
	SETTINGS index_granularity = 8192`

	if err := d.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	// Add bloom filter index for full-text search (ignore error if already exists).
	_ = d.conn.Exec(ctx, `ALTER TABLE bid_sequences ADD INDEX IF NOT EXISTS idx_raw_text_bloom raw_text TYPE tokenbf_v1(32768, 3, 0) GRANULARITY 1`)

	return nil
}

// CHSequence represents a sequence row stored in ClickHouse.
type CHSequence struct {
	Base           string
	Fleet          string
	Year           uint16
	Month          string
	SequenceNumber string
	Position       string
	LengthDays     uint8
	Instances      uint16
	CreditMinutes  *int32
	DutyMinutes    *int32
	BlockMinutes   *int32
	StartDates     string
	RawText        string
	SequenceJSON   string
	CreatedAt      time.Time
}

// CHSequenceParams contains parameters for inserting a sequence row.
type CHSequenceParams struct {
	Base           string
	Fleet          string
	Year           uint16
	Month          string
	SequenceNumber string
	Position       string
	LengthDays     uint8
	Instances      uint16
	CreditMinutes  *int32
	DutyMinutes    *int32
	BlockMinutes   *int32
	StartDates     []string
	RawText        string
	SequenceData   interface{}
}

// InsertSequenceBatch stores multiple sequence rows in ClickHouse efficiently.
func (d *ClickHouseDB) InsertSequenceBatch(ctx context.Context, sequences []CHSequenceParams) error {
	if len(sequences) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO bid_sequences (base, fleet, year, month, seq_number, position, length_days, instances, credit_minutes, duty_minutes, block_minutes, start_dates, raw_text, sequence_json)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range sequences {
		sequenceJSON, err := json.Marshal(p.SequenceData)
		if err != nil {
			return fmt.Errorf("marshal sequence data: %w", err)
		}
		startDatesJSON, err := json.Marshal(p.StartDates)
		if err != nil {
			return fmt.Errorf("marshal start dates: %w", err)
		}

		err = batch.Append(p.Base, p.Fleet, p.Year, p.Month, p.SequenceNumber, p.Position,
			p.LengthDays, p.Instances, p.CreditMinutes, p.DutyMinutes, p.BlockMinutes,
			string(startDatesJSON), p.RawText, string(sequenceJSON))
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// CHSequenceQuery contains filtering options for querying sequences.
type CHSequenceQuery struct {
	Base           string
	Fleet          string
	Year           int
	Month          string
	SequenceNumber string
	FullText       string // LIKE match on raw_text.
	Limit          int
	Offset         int
	OrderBy        string
	OrderDesc      bool
}

// QuerySequences retrieves sequence rows matching the given parameters.
func (d *ClickHouseDB) QuerySequences(ctx context.Context, p CHSequenceQuery) ([]CHSequence, error) {
	var conditions []string
	var args []interface{}

	if p.Base != "" {
		conditions = append(conditions, "base = ?")
		args = append(args, p.Base)
	}
	if p.Fleet != "" {
		conditions = append(conditions, "fleet = ?")
		args = append(args, p.Fleet)
	}
	if p.Year != 0 {
		conditions = append(conditions, "year = ?")
		args = append(args, uint16(p.Year))
	}
	if p.Month != "" {
		conditions = append(conditions, "month = ?")
		args = append(args, p.Month)
	}
	if p.SequenceNumber != "" {
		conditions = append(conditions, "seq_number = ?")
		args = append(args, p.SequenceNumber)
	}
	if p.FullText != "" {
		conditions = append(conditions, "raw_text LIKE ?")
		args = append(args, "%"+p.FullText+"%")
	}

	query := `SELECT base, fleet, year, month, seq_number, position, length_days, instances, credit_minutes, duty_minutes, block_minutes, start_dates, raw_text, sequence_json, created_at FROM bid_sequences`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Order by.
	orderField := "seq_number"
	if p.OrderBy != "" {
		switch p.OrderBy {
		case "year", "month", "base", "fleet", "credit_minutes", "created_at":
			orderField = p.OrderBy
		}
	}
	direction := "ASC"
	if p.OrderDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", orderField, direction)

	// Limit and offset.
	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, p.Offset)

	rows, err := d.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sequences: %w", err)
	}
	defer rows.Close()

	var sequences []CHSequence
	for rows.Next() {
		var s CHSequence
		err := rows.Scan(&s.Base, &s.Fleet, &s.Year, &s.Month, &s.SequenceNumber, &s.Position,
			&s.LengthDays, &s.Instances, &s.CreditMinutes, &s.DutyMinutes, &s.BlockMinutes,
			&s.StartDates, &s.RawText, &s.SequenceJSON, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sequences = append(sequences, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return sequences, nil
}

// CHStats contains aggregate statistics about stored sequences.
type CHStats struct {
	TotalSequences uint64
	ByBase         map[string]uint64
	ByMonth        map[string]uint64
	AvgCredit      float64
}

// GetStats returns statistics about stored sequences.
func (d *ClickHouseDB) GetStats(ctx context.Context) (*CHStats, error) {
	stats := &CHStats{
		ByBase:  make(map[string]uint64),
		ByMonth: make(map[string]uint64),
	}

	// Total sequences.
	row := d.conn.QueryRow(ctx, "SELECT count() FROM bid_sequences")
	if err := row.Scan(&stats.TotalSequences); err != nil {
		return nil, err
	}

	// By base.
	rows, err := d.conn.Query(ctx, "SELECT base, count() FROM bid_sequences GROUP BY base ORDER BY count() DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var base string
		var count uint64
		if err := rows.Scan(&base, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan base stats: %w", err)
		}
		stats.ByBase[base] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate base stats: %w", err)
	}
	rows.Close()

	// By bid month.
	rows, err = d.conn.Query(ctx, "SELECT month, count() FROM bid_sequences GROUP BY month ORDER BY count() DESC LIMIT 20")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var month string
		var count uint64
		if err := rows.Scan(&month, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan month stats: %w", err)
		}
		stats.ByMonth[month] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate month stats: %w", err)
	}
	rows.Close()

	// Average credit across sequences that reported totals.
	row = d.conn.QueryRow(ctx, "SELECT avg(credit_minutes) FROM bid_sequences WHERE credit_minutes IS NOT NULL")
	if err := row.Scan(&stats.AvgCredit); err != nil {
		return nil, err
	}

	return stats, nil
}

// CountByMonth returns sequence counts grouped by bid month.
func (d *ClickHouseDB) CountByMonth(ctx context.Context) (map[string]uint64, error) {
	counts := make(map[string]uint64)
	rows, err := d.conn.Query(ctx, "SELECT month, count() FROM bid_sequences GROUP BY month")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var month string
		var count uint64
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("scan count by month: %w", err)
		}
		counts[month] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate count by month: %w", err)
	}
	return counts, nil
}
