package basin

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

const recordSchemaSQL = `
CREATE TABLE IF NOT EXISTS basins (
	id            INTEGER PRIMARY KEY,
	run_id        TEXT NOT NULL DEFAULT '',
	x             REAL,
	y             REAL,
	drainage_area REAL,
	ksn_method    TEXT NOT NULL DEFAULT '',
	concavity     REAL,
	ksn_mean      REAL,
	record        BLOB NOT NULL,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore keeps records in a sqlite table: summary columns for querying
// plus the whole record as a gob blob.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := conn.Exec(recordSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Has(id int) bool {
	var n int
	err := s.conn.QueryRow(`SELECT COUNT(1) FROM basins WHERE id = ?`, id).Scan(&n)
	return err == nil && n > 0
}

// Put upserts r in a single statement.
func (s *SQLiteStore) Put(r *Record) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return fmt.Errorf("sqlite: encode %d: %w", r.ID, err)
	}
	_, err := s.conn.Exec(`
		INSERT INTO basins (id, run_id, x, y, drainage_area, ksn_method, concavity, ksn_mean, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			x = excluded.x,
			y = excluded.y,
			drainage_area = excluded.drainage_area,
			ksn_method = excluded.ksn_method,
			concavity = excluded.concavity,
			ksn_mean = excluded.ksn_mean,
			record = excluded.record,
			updated_at = CURRENT_TIMESTAMP`,
		r.ID, r.RunID.String(), r.X, r.Y, r.DrainageArea, r.KsnMethod,
		nullFloat(r.BestFitConcavity), nullFloat(r.Ksn.Mean), buf.Bytes())
	if err != nil {
		return fmt.Errorf("sqlite: put %d: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(id int) (*Record, error) {
	var b []byte
	err := s.conn.QueryRow(`SELECT record FROM basins WHERE id = ?`, id).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("basin %d: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("sqlite: get %d: %w", id, err)
	}
	var r Record
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&r); err != nil {
		return nil, fmt.Errorf("sqlite: decode %d: %w", id, err)
	}
	return &r, nil
}

func (s *SQLiteStore) IDs() ([]int, error) {
	rows, err := s.conn.Query(`SELECT id FROM basins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: ids: %w", err)
	}
	defer rows.Close()
	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// sqlite has no NaN; store NULL instead.
func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}
