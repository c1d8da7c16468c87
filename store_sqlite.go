package contraptions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the population in an SQLite table, one row per
// contraption.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("contraptions: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS contraptions (
		world     TEXT    NOT NULL,
		x         INTEGER NOT NULL,
		y         INTEGER NOT NULL,
		z         INTEGER NOT NULL,
		type      TEXT    NOT NULL,
		resources TEXT    NOT NULL,
		PRIMARY KEY (world, x, y, z)
	)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{path: path, db: db}, nil
}

// Name returns the database path.
func (s *SQLiteStore) Name() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save replaces every row in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contraptions`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO contraptions (world, x, y, z, type, resources) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		res, err := json.Marshal(rec.Resources)
		if err != nil {
			return fmt.Errorf("contraptions: encode %s: %w", rec.Location, err)
		}
		p := rec.Location.Pos
		if _, err := stmt.ExecContext(ctx, rec.Location.World, p.X(), p.Y(), p.Z(), rec.Type, string(res)); err != nil {
			return fmt.Errorf("contraptions: insert %s: %w", rec.Location, err)
		}
	}
	return tx.Commit()
}

// Load reads every row. Rows with unreadable resources are skipped.
func (s *SQLiteStore) Load(ctx context.Context) ([]Record, []LoadFailure, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT world, x, y, z, type, resources FROM contraptions ORDER BY world, x, y, z`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var records []Record
	var failures []LoadFailure
	for rows.Next() {
		var (
			rec     Record
			x, y, z int
			res     string
		)
		if err := rows.Scan(&rec.Location.World, &x, &y, &z, &rec.Type, &res); err != nil {
			return nil, nil, err
		}
		rec.Location = At(rec.Location.World, x, y, z)

		source := fmt.Sprintf("%s:%s", s.path, rec.Location)
		if err := json.Unmarshal([]byte(res), &rec.Resources); err != nil {
			failures = append(failures, LoadFailure{Source: source, Err: err})
			continue
		}
		if err := rec.validate(); err != nil {
			failures = append(failures, LoadFailure{Source: source, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, failures, rows.Err()
}
