package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"omnigrade/internal"
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
CREATE TABLE IF NOT EXISTS imports (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  ref TEXT NOT NULL,
  label TEXT,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  rawRef TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, ref)
);

CREATE TABLE IF NOT EXISTS sources (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  importId INTEGER NOT NULL,
  ordinal INTEGER NOT NULL,
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  hash TEXT NOT NULL,
  rawRef TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  engine TEXT,
  textLen INTEGER NOT NULL DEFAULT 0,
  textPreview TEXT,
  error TEXT,
  traceJson TEXT,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(importId, ordinal),
  FOREIGN KEY(importId) REFERENCES imports(id)
);

CREATE TABLE IF NOT EXISTS candidates (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sourceId INTEGER NOT NULL,
  ordinal INTEGER NOT NULL,
  pass TEXT NOT NULL,
  courseName TEXT NOT NULL,
  classCode TEXT NOT NULL,
  yourGrade REAL,
  classAvg REAL,
  stdDev REAL,
  FOREIGN KEY(sourceId) REFERENCES sources(id)
);
CREATE INDEX IF NOT EXISTS idx_candidates_source ON candidates(sourceId);

CREATE TABLE IF NOT EXISTS courses (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  importId INTEGER NOT NULL,
  ordinal INTEGER NOT NULL,
  courseName TEXT NOT NULL,
  classCode TEXT NOT NULL,
  yourGrade REAL,
  classAvg REAL,
  stdDev REAL,
  credits REAL,
  creditsSource TEXT,
  pass TEXT,
  UNIQUE(importId, ordinal),
  FOREIGN KEY(importId) REFERENCES imports(id)
);

CREATE TABLE IF NOT EXISTS credits (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  classCode TEXT NOT NULL,
  nameKey TEXT NOT NULL,
  name TEXT NOT NULL,
  credits REAL NOT NULL,
  origin TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  importId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(importId) REFERENCES imports(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

const importColumns = `id, provider, ref, COALESCE(label, ''), COALESCE(subject, ''), COALESCE(sender, ''), COALESCE(receivedAt, ''), hash, status, COALESCE(rawRef, ''), createdAt`

func scanImport(s interface{ Scan(...any) error }) (internal.ImportRow, error) {
	var row internal.ImportRow
	err := s.Scan(&row.ID, &row.Provider, &row.Ref, &row.Label, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef, &row.CreatedAt)
	return row, err
}

// UpsertImport creates the import or refreshes its descriptive fields. An
// existing import keeps its status.
func (d *DB) UpsertImport(row internal.ImportRow) (internal.ImportRow, error) {
	if row.Status == "" {
		row.Status = internal.ImportPending
	}
	_, err := d.conn.Exec(`
INSERT INTO imports (provider, ref, label, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, ref) DO UPDATE SET
  label=excluded.label,
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, row.Provider, row.Ref, row.Label, row.Subject, row.Sender, row.ReceivedAt, row.Hash, string(row.Status), row.RawRef)
	if err != nil {
		return internal.ImportRow{}, err
	}

	stored, err := d.GetImportByProviderRef(row.Provider, row.Ref)
	if err != nil {
		return internal.ImportRow{}, err
	}
	if stored == nil {
		return internal.ImportRow{}, errors.New("failed to upsert import")
	}
	return *stored, nil
}

func (d *DB) GetImportByProviderRef(provider, ref string) (*internal.ImportRow, error) {
	row, err := scanImport(d.conn.QueryRow(`SELECT `+importColumns+` FROM imports WHERE provider = ? AND ref = ?`, provider, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetImportByID(id int) (*internal.ImportRow, error) {
	row, err := scanImport(d.conn.QueryRow(`SELECT `+importColumns+` FROM imports WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustImport(id int) (internal.ImportRow, error) {
	row, err := d.GetImportByID(id)
	if err != nil {
		return internal.ImportRow{}, err
	}
	if row == nil {
		return internal.ImportRow{}, fmt.Errorf("import not found: id=%d", id)
	}
	return *row, nil
}

func (d *DB) ListImportsByStatus(status internal.ImportStatus, limit int) ([]internal.ImportRow, error) {
	rows, err := d.conn.Query(`SELECT `+importColumns+` FROM imports WHERE status = ? ORDER BY id ASC LIMIT ?`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ImportRow
	for rows.Next() {
		row, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateImportStatus(importID int, status internal.ImportStatus) error {
	_, err := d.conn.Exec(`UPDATE imports SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, string(status), importID)
	return err
}

// ClearImportProcessing drops the rows a previous processing run produced so
// the import can be processed again. Sources stay.
func (d *DB) ClearImportProcessing(importID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM candidates WHERE sourceId IN (SELECT id FROM sources WHERE importId = ?)`, importID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM courses WHERE importId = ?`, importID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE sources SET status = 'pending', engine = NULL, textLen = 0, textPreview = NULL, error = NULL, traceJson = NULL WHERE importId = ?`, importID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) AddSource(importID, ordinal int, name string, kind internal.SourceKind, hash, rawRef string) (internal.SourceRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO sources (importId, ordinal, name, kind, hash, rawRef)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(importId, ordinal) DO UPDATE SET
  name=excluded.name,
  kind=excluded.kind,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, importID, ordinal, name, string(kind), hash, rawRef)
	if err != nil {
		return internal.SourceRow{}, err
	}
	var id int
	if err := d.conn.QueryRow(`SELECT id FROM sources WHERE importId = ? AND ordinal = ?`, importID, ordinal).Scan(&id); err != nil {
		return internal.SourceRow{}, err
	}
	return internal.SourceRow{
		ID:       id,
		ImportID: importID,
		Ordinal:  ordinal,
		Name:     name,
		Kind:     kind,
		Hash:     hash,
		RawRef:   rawRef,
		Status:   internal.SourcePending,
	}, nil
}

func (d *DB) ListSources(importID int) ([]internal.SourceRow, error) {
	rows, err := d.conn.Query(`
SELECT id, importId, ordinal, name, kind, hash, rawRef, status,
       COALESCE(engine, ''), textLen, COALESCE(textPreview, ''), COALESCE(error, '')
FROM sources WHERE importId = ? ORDER BY ordinal ASC
`, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SourceRow
	for rows.Next() {
		var row internal.SourceRow
		if err := rows.Scan(&row.ID, &row.ImportID, &row.Ordinal, &row.Name, &row.Kind, &row.Hash, &row.RawRef, &row.Status,
			&row.Engine, &row.TextLen, &row.TextPreview, &row.Error); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpdateSourceResult records how a source was read. trace is stored as JSON.
func (d *DB) UpdateSourceResult(row internal.SourceRow, trace any) error {
	traceJSON, _ := json.Marshal(trace)
	_, err := d.conn.Exec(`
UPDATE sources SET status = ?, engine = ?, textLen = ?, textPreview = ?, error = ?, traceJson = ?, updatedAt = CURRENT_TIMESTAMP
WHERE id = ?
`, string(row.Status), row.Engine, row.TextLen, row.TextPreview, row.Error, string(traceJSON), row.ID)
	return err
}

func (d *DB) InsertCandidates(sourceID int, records []internal.CourseRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO candidates (sourceId, ordinal, pass, courseName, classCode, yourGrade, classAvg, stdDev)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(sourceID, i+1, string(r.Pass), r.CourseName, r.ClassCode, r.YourGrade, r.ClassAvg, r.StdDev); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListCandidates returns the stored per-source rows of an import in source
// order, then row order.
func (d *DB) ListCandidates(importID int) ([]internal.CourseRecord, error) {
	rows, err := d.conn.Query(`
SELECT c.pass, c.courseName, c.classCode, c.yourGrade, c.classAvg, c.stdDev
FROM candidates c
JOIN sources s ON s.id = c.sourceId
WHERE s.importId = ?
ORDER BY s.ordinal ASC, c.ordinal ASC
`, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CourseRecord
	for rows.Next() {
		var r internal.CourseRecord
		if err := rows.Scan(&r.Pass, &r.CourseName, &r.ClassCode, &r.YourGrade, &r.ClassAvg, &r.StdDev); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ReplaceCourses(importID int, records []internal.CourseRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM courses WHERE importId = ?`, importID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
INSERT INTO courses (importId, ordinal, courseName, classCode, yourGrade, classAvg, stdDev, credits, creditsSource, pass)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(importID, i+1, r.CourseName, r.ClassCode, r.YourGrade, r.ClassAvg, r.StdDev, r.Credits, r.CreditsSource, string(r.Pass)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCourses(importID int) ([]internal.CourseRecord, error) {
	rows, err := d.conn.Query(`
SELECT courseName, classCode, yourGrade, classAvg, stdDev, credits, COALESCE(creditsSource, ''), COALESCE(pass, '')
FROM courses WHERE importId = ? ORDER BY ordinal ASC
`, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.CourseRecord{}
	for rows.Next() {
		var r internal.CourseRecord
		if err := rows.Scan(&r.CourseName, &r.ClassCode, &r.YourGrade, &r.ClassAvg, &r.StdDev, &r.Credits, &r.CreditsSource, &r.Pass); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceCredits swaps the whole credit map in one transaction.
func (d *DB) ReplaceCredits(mappings []internal.CreditMapping) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM credits`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO credits (classCode, nameKey, name, credits, origin) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range mappings {
		if _, err := stmt.Exec(m.ClassCode, m.NameKey, m.Name, m.Credits, m.Origin); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCredits() ([]internal.CreditMapping, error) {
	rows, err := d.conn.Query(`SELECT classCode, nameKey, name, credits, origin FROM credits ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CreditMapping
	for rows.Next() {
		var m internal.CreditMapping
		if err := rows.Scan(&m.ClassCode, &m.NameKey, &m.Name, &m.Credits, &m.Origin); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID string, importID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, importId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, importID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
