package storage

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"drawbom/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL UNIQUE,
  totalFiles INTEGER NOT NULL,
  succeeded INTEGER NOT NULL,
  failed INTEGER NOT NULL,
  warned INTEGER NOT NULL,
  durationMs REAL NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  fileName TEXT NOT NULL,
  status TEXT NOT NULL,
  itemCount INTEGER NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  itemsJson TEXT NOT NULL DEFAULT '[]',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_documents_runId ON documents(runId);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(runID string, totalFiles, succeeded, failed, warned int, durationMs float64) error {
	_, err := d.conn.Exec(`
INSERT INTO runs (runId, totalFiles, succeeded, failed, warned, durationMs)
VALUES (?, ?, ?, ?, ?, ?)
`, runID, totalFiles, succeeded, failed, warned, durationMs)
	return err
}

func (d *DB) InsertDocument(runID, fileName, status string, itemCount int, errMsg string, items []internal.BomItem) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		itemsJSON = []byte("[]")
	}
	_, err = d.conn.Exec(`
INSERT INTO documents (runId, fileName, status, itemCount, error, itemsJson)
VALUES (?, ?, ?, ?, ?, ?)
`, runID, fileName, status, itemCount, errMsg, string(itemsJSON))
	return err
}

func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, runId, totalFiles, succeeded, failed, warned, durationMs, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var row internal.RunRow
		if err := rows.Scan(&row.ID, &row.RunID, &row.TotalFiles, &row.Succeeded, &row.Failed, &row.Warned, &row.DurationMs, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) ListRunDocuments(runID string) ([]internal.DocumentRow, error) {
	rows, err := d.conn.Query(`
SELECT id, runId, fileName, status, itemCount, error, itemsJson, createdAt
FROM documents WHERE runId = ? ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.DocumentRow
	for rows.Next() {
		var row internal.DocumentRow
		if err := rows.Scan(&row.ID, &row.RunID, &row.FileName, &row.Status, &row.ItemCount, &row.Error, &row.ItemsJSON, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
