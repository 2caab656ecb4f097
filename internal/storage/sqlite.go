package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"bidpacket_parser/internal/bidpacket"
)

// StoredPacket represents a stored bid packet with its assembled JSON document.
type StoredPacket struct {
	ID             int64
	Base           string
	Fleet          string
	Month          string
	Year           int
	BidPeriodStart string
	BidPeriodEnd   string
	SourceDocument string
	SequenceCount  int
	PacketJSON     string
	CreatedAt      string
}

// StoredSequence represents a single sequence row belonging to a packet.
type StoredSequence struct {
	ID             int64
	PacketID       int64
	SequenceNumber string
	Position       string
	LengthDays     int
	Credit         string
	TotalDuty      string
	TotalBlock     string
	Instances      int
	RawText        string
	SequenceJSON   string
}

// SQLiteDB wraps a SQLite database connection for packet storage.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (d *SQLiteDB) Close() error {
	return d.db.Close()
}

// createSchema creates the database tables and indices.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS packets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base TEXT NOT NULL,
		fleet TEXT NOT NULL,
		month TEXT NOT NULL,
		year INTEGER NOT NULL,
		bid_period_start TEXT,
		bid_period_end TEXT,
		source_document TEXT,
		sequence_count INTEGER NOT NULL DEFAULT 0,
		packet_json TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_packets_base ON packets(base);
	CREATE INDEX IF NOT EXISTS idx_packets_fleet ON packets(fleet);
	CREATE INDEX IF NOT EXISTS idx_packets_period ON packets(year, month);

	CREATE TABLE IF NOT EXISTS sequences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		packet_id INTEGER NOT NULL REFERENCES packets(id) ON DELETE CASCADE,
		seq_number TEXT NOT NULL,
		position TEXT,
		length_days INTEGER,
		credit TEXT,
		total_duty TEXT,
		total_block TEXT,
		instances INTEGER,
		raw_text TEXT NOT NULL,
		sequence_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sequences_packet ON sequences(packet_id);
	CREATE INDEX IF NOT EXISTS idx_sequences_number ON sequences(seq_number);
	-- Note: idx_sequences_position created by migration for existing DBs

	-- FTS5 virtual table for full-text search on raw sequence text.
	CREATE VIRTUAL TABLE IF NOT EXISTS sequences_fts USING fts5(
		raw_text,
		content='sequences',
		content_rowid='id'
	);

	-- Triggers to keep FTS index in sync.
	CREATE TRIGGER IF NOT EXISTS sequences_ai AFTER INSERT ON sequences BEGIN
		INSERT INTO sequences_fts(rowid, raw_text) VALUES (new.id, new.raw_text);
	END;

	CREATE TRIGGER IF NOT EXISTS sequences_ad AFTER DELETE ON sequences BEGIN
		INSERT INTO sequences_fts(sequences_fts, rowid, raw_text) VALUES('delete', old.id, old.raw_text);
	END;

	CREATE TRIGGER IF NOT EXISTS sequences_au AFTER UPDATE ON sequences BEGIN
		INSERT INTO sequences_fts(sequences_fts, rowid, raw_text) VALUES('delete', old.id, old.raw_text);
		INSERT INTO sequences_fts(rowid, raw_text) VALUES (new.id, new.raw_text);
	END;
	`

	_, err := db.Exec(schema)
	if err != nil {
		return err
	}

	// Run migrations for existing databases.
	return migrateSchema(db)
}

// migrateSchema adds new columns to existing databases.
func migrateSchema(db *sql.DB) error {
	// Check if bid_period_start column exists.
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('packets') WHERE name='bid_period_start'`).Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		// Add bid period columns introduced after the initial schema.
		migrations := []string{
			`ALTER TABLE packets ADD COLUMN bid_period_start TEXT`,
			`ALTER TABLE packets ADD COLUMN bid_period_end TEXT`,
		}
		for _, m := range migrations {
			if _, err := db.Exec(m); err != nil {
				// Ignore "duplicate column" errors for idempotency.
				if !strings.Contains(err.Error(), "duplicate column") {
					return err
				}
			}
		}
	}

	// Position index arrived with the position column.
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_sequences_position ON sequences(position)`)

	return nil
}

// InsertPacket stores an assembled packet and its sequences in one transaction.
// It returns the new packet's row ID.
func (d *SQLiteDB) InsertPacket(pkt *bidpacket.Packet) (int64, error) {
	packetJSON, err := json.Marshal(pkt)
	if err != nil {
		return 0, fmt.Errorf("marshal packet: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
		INSERT INTO packets (base, fleet, month, year, bid_period_start, bid_period_end, source_document, sequence_count, packet_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, pkt.Metadata.Base, pkt.Metadata.Fleet, pkt.Metadata.Month, pkt.Metadata.Year,
		pkt.Metadata.BidPeriodStart, pkt.Metadata.BidPeriodEnd, pkt.Metadata.SourceDocument,
		len(pkt.Sequences), string(packetJSON))
	if err != nil {
		return 0, fmt.Errorf("insert packet: %w", err)
	}

	packetID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, seq := range pkt.Sequences {
		seqJSON, err := json.Marshal(seq)
		if err != nil {
			return 0, fmt.Errorf("marshal sequence %s: %w", seq.SequenceNumber, err)
		}
		_, err = tx.Exec(`
			INSERT INTO sequences (packet_id, seq_number, position, length_days, credit, total_duty, total_block, instances, raw_text, sequence_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, packetID, seq.SequenceNumber, seq.Position, seq.LengthDays,
			seq.Credit, seq.TotalDuty, seq.TotalBlock, seq.InstancesInMonth, seq.Raw, string(seqJSON))
		if err != nil {
			return 0, fmt.Errorf("insert sequence %s: %w", seq.SequenceNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return packetID, nil
}

// PacketQueryParams contains filtering options for querying packets.
type PacketQueryParams struct {
	ID        int64  // Filter by specific packet ID.
	Base      string // Filter by base (exact match).
	Fleet     string // Filter by fleet (exact match).
	Month     string // Filter by bid month (exact match).
	Year      int    // Filter by bid year.
	Limit     int    // Max results (default 100).
	Offset    int    // Pagination offset.
	OrderBy   string // Sort field (created_at, base, fleet, year, month).
	OrderDesc bool   // Sort descending.
}

// QueryPackets retrieves packets matching the given parameters.
func (d *SQLiteDB) QueryPackets(p PacketQueryParams) ([]StoredPacket, error) {
	var conditions []string
	var args []interface{}

	if p.ID != 0 {
		conditions = append(conditions, "id = ?")
		args = append(args, p.ID)
	}
	if p.Base != "" {
		conditions = append(conditions, "base = ?")
		args = append(args, p.Base)
	}
	if p.Fleet != "" {
		conditions = append(conditions, "fleet = ?")
		args = append(args, p.Fleet)
	}
	if p.Month != "" {
		conditions = append(conditions, "month = ?")
		args = append(args, p.Month)
	}
	if p.Year != 0 {
		conditions = append(conditions, "year = ?")
		args = append(args, p.Year)
	}

	query := `SELECT id, base, fleet, month, year, bid_period_start, bid_period_end,
			source_document, sequence_count, packet_json, created_at
			FROM packets`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Order by.
	orderField := "id"
	if p.OrderBy != "" {
		switch p.OrderBy {
		case "created_at", "base", "fleet", "year", "month":
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

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query packets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var packets []StoredPacket
	for rows.Next() {
		pkt, err := scanPacket(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		packets = append(packets, pkt)
	}

	return packets, rows.Err()
}

// scanPacket reads one packet row from a Scan-compatible source.
func scanPacket(scan func(dest ...interface{}) error) (StoredPacket, error) {
	var pkt StoredPacket
	var periodStart, periodEnd, sourceDoc, createdAt sql.NullString

	err := scan(&pkt.ID, &pkt.Base, &pkt.Fleet, &pkt.Month, &pkt.Year,
		&periodStart, &periodEnd, &sourceDoc, &pkt.SequenceCount, &pkt.PacketJSON, &createdAt)
	if err != nil {
		return pkt, err
	}

	if periodStart.Valid {
		pkt.BidPeriodStart = periodStart.String
	}
	if periodEnd.Valid {
		pkt.BidPeriodEnd = periodEnd.String
	}
	if sourceDoc.Valid {
		pkt.SourceDocument = sourceDoc.String
	}
	if createdAt.Valid {
		pkt.CreatedAt = createdAt.String
	}

	return pkt, nil
}

// GetPacket retrieves a single packet by ID.
func (d *SQLiteDB) GetPacket(id int64) (*StoredPacket, error) {
	row := d.db.QueryRow(`SELECT id, base, fleet, month, year, bid_period_start, bid_period_end,
			source_document, sequence_count, packet_json, created_at
			FROM packets WHERE id = ?`, id)

	pkt, err := scanPacket(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &pkt, nil
}

// SequencesForPacket retrieves all sequences belonging to a packet in insertion order.
func (d *SQLiteDB) SequencesForPacket(packetID int64) ([]StoredSequence, error) {
	rows, err := d.db.Query(`SELECT id, packet_id, seq_number, position, length_days,
			credit, total_duty, total_block, instances, raw_text, sequence_json
			FROM sequences WHERE packet_id = ? ORDER BY id`, packetID)
	if err != nil {
		return nil, fmt.Errorf("query sequences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sequences []StoredSequence
	for rows.Next() {
		seq, err := scanSequence(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sequences = append(sequences, seq)
	}

	return sequences, rows.Err()
}

// SearchSequences performs an FTS5 full-text search over raw sequence text.
func (d *SQLiteDB) SearchSequences(match string, limit int) ([]StoredSequence, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.db.Query(`SELECT s.id, s.packet_id, s.seq_number, s.position, s.length_days,
			s.credit, s.total_duty, s.total_block, s.instances, s.raw_text, s.sequence_json
			FROM sequences s
			JOIN sequences_fts fts ON s.id = fts.rowid
			WHERE sequences_fts MATCH ?
			ORDER BY s.id LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search sequences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sequences []StoredSequence
	for rows.Next() {
		seq, err := scanSequence(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sequences = append(sequences, seq)
	}

	return sequences, rows.Err()
}

// scanSequence reads one sequence row from a Scan-compatible source.
func scanSequence(scan func(dest ...interface{}) error) (StoredSequence, error) {
	var seq StoredSequence
	var position, credit, totalDuty, totalBlock sql.NullString
	var lengthDays, instances sql.NullInt64

	err := scan(&seq.ID, &seq.PacketID, &seq.SequenceNumber, &position, &lengthDays,
		&credit, &totalDuty, &totalBlock, &instances, &seq.RawText, &seq.SequenceJSON)
	if err != nil {
		return seq, err
	}

	if position.Valid {
		seq.Position = position.String
	}
	if lengthDays.Valid {
		seq.LengthDays = int(lengthDays.Int64)
	}
	if credit.Valid {
		seq.Credit = credit.String
	}
	if totalDuty.Valid {
		seq.TotalDuty = totalDuty.String
	}
	if totalBlock.Valid {
		seq.TotalBlock = totalBlock.String
	}
	if instances.Valid {
		seq.Instances = int(instances.Int64)
	}

	return seq, nil
}

// Stats contains aggregate statistics about stored packets.
type Stats struct {
	TotalPackets   int            `json:"total_packets"`
	TotalSequences int            `json:"total_sequences"`
	ByBase         map[string]int `json:"by_base"`
	ByFleet        map[string]int `json:"by_fleet"`
	ByMonth        map[string]int `json:"by_month"`
	ByPosition     map[string]int `json:"by_position"`
	MissingTotals  map[string]int `json:"missing_totals"` // Sequences whose credit/duty/block never resolved.
}

// GetStats returns statistics about the stored packets and sequences.
func (d *SQLiteDB) GetStats() (*Stats, error) {
	stats := &Stats{
		ByBase:     make(map[string]int),
		ByFleet:    make(map[string]int),
		ByMonth:    make(map[string]int),
		ByPosition: make(map[string]int),
	}

	// Totals.
	row := d.db.QueryRow("SELECT COUNT(*) FROM packets")
	if err := row.Scan(&stats.TotalPackets); err != nil {
		return nil, err
	}
	row = d.db.QueryRow("SELECT COUNT(*) FROM sequences")
	if err := row.Scan(&stats.TotalSequences); err != nil {
		return nil, err
	}

	// COUNT(col) skips NULLs, so the difference is the unresolved tally.
	row = d.db.QueryRow("SELECT COUNT(*) - COUNT(credit), COUNT(*) - COUNT(total_duty), COUNT(*) - COUNT(total_block) FROM sequences")
	var missingCredit, missingDuty, missingBlock int
	if err := row.Scan(&missingCredit, &missingDuty, &missingBlock); err != nil {
		return nil, err
	}
	stats.MissingTotals = map[string]int{
		"credit":      missingCredit,
		"total_duty":  missingDuty,
		"total_block": missingBlock,
	}

	// By base.
	rows, err := d.db.Query("SELECT base, COUNT(*) FROM packets GROUP BY base ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var base string
		var count int
		if err := rows.Scan(&base, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByBase[base] = count
	}
	_ = rows.Close()

	// By fleet.
	rows, err = d.db.Query("SELECT fleet, COUNT(*) FROM packets GROUP BY fleet ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var fleet string
		var count int
		if err := rows.Scan(&fleet, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByFleet[fleet] = count
	}
	_ = rows.Close()

	// By bid month.
	rows, err = d.db.Query("SELECT month, COUNT(*) FROM packets GROUP BY month ORDER BY COUNT(*) DESC LIMIT 20")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var month string
		var count int
		if err := rows.Scan(&month, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByMonth[month] = count
	}
	_ = rows.Close()

	// By position.
	rows, err = d.db.Query("SELECT position, COUNT(*) FROM sequences WHERE position IS NOT NULL AND position != '' GROUP BY position ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var position string
		var count int
		if err := rows.Scan(&position, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByPosition[position] = count
	}
	_ = rows.Close()

	return stats, nil
}

// Distinct returns distinct values for a given column.
func (d *SQLiteDB) Distinct(column string) ([]string, error) {
	// Validate column name to prevent SQL injection.
	validColumns := map[string]string{
		"base":     "packets",
		"fleet":    "packets",
		"month":    "packets",
		"position": "sequences",
	}
	table, ok := validColumns[column]
	if !ok {
		return nil, fmt.Errorf("invalid column: %s", column)
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL AND %s != '' ORDER BY %s", column, table, column, column, column)
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DeletePacket removes a packet and its sequences.
func (d *SQLiteDB) DeletePacket(id int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Foreign keys are not enforced by default, so delete children explicitly.
	if _, err := tx.Exec(`DELETE FROM sequences WHERE packet_id = ?`, id); err != nil {
		return fmt.Errorf("delete sequences: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM packets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete packet: %w", err)
	}

	return tx.Commit()
}
