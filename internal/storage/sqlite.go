package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"patlens/internal/report"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			root TEXT,
			generated_at TEXT,
			files_scanned INTEGER,
			parse_failures INTEGER,
			total_detections INTEGER,
			refactoring_candidates INTEGER,
			report JSON
		);`,
		`CREATE TABLE IF NOT EXISTS matches (
			scan_id INTEGER,
			pattern TEXT,
			node_name TEXT,
			filepath TEXT,
			start_line INTEGER,
			end_line INTEGER,
			confidence REAL,
			FOREIGN KEY (scan_id) REFERENCES scans(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_matches_pattern ON matches(pattern);`,
		`CREATE INDEX IF NOT EXISTS idx_matches_scan ON matches(scan_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveScan persists the full report as JSON plus denormalized match rows
// inside one transaction.
func (s *SQLiteStore) SaveScan(ctx context.Context, r *report.Report) (int64, error) {
	blob, err := json.Marshal(r)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO scans (root, generated_at, files_scanned, parse_failures, total_detections, refactoring_candidates, report)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.Root, r.GeneratedAt, r.FilesScanned, r.ParseFailures, r.TotalDetections, r.RefactoringCandidates, blob)
	if err != nil {
		return 0, err
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches (scan_id, pattern, node_name, filepath, start_line, end_line, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, f := range r.Files {
		for _, m := range f.Matches {
			if _, err := stmt.ExecContext(ctx, scanID, m.PatternName, m.NodeName, m.Pos.Filepath, m.Pos.StartLine, m.Pos.EndLine, m.Confidence); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return scanID, nil
}

func (s *SQLiteStore) GetScan(ctx context.Context, id int64) (*report.Report, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT report FROM scans WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	var r report.Report
	if err := json.Unmarshal(blob, &r); err != nil {
		return nil, fmt.Errorf("corrupt report for scan %d: %w", id, err)
	}
	return &r, nil
}

func (s *SQLiteStore) ListScans(ctx context.Context) ([]ScanSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root, generated_at, files_scanned, total_detections
		FROM scans ORDER BY id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []ScanSummary
	for rows.Next() {
		var sc ScanSummary
		if err := rows.Scan(&sc.ID, &sc.Root, &sc.GeneratedAt, &sc.FilesScanned, &sc.TotalDetections); err != nil {
			return nil, err
		}
		scans = append(scans, sc)
	}
	return scans, rows.Err()
}

func (s *SQLiteStore) FindMatchesByPattern(ctx context.Context, name string) ([]StoredMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, pattern, node_name, filepath, start_line, end_line, confidence
		FROM matches WHERE pattern = ? ORDER BY confidence DESC
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []StoredMatch
	for rows.Next() {
		var m StoredMatch
		if err := rows.Scan(&m.ScanID, &m.Pattern, &m.NodeName, &m.Filepath, &m.StartLine, &m.EndLine, &m.Confidence); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
