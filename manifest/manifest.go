// Package manifest keeps a SQLite ledger of the converted images,
// which allows a batch run to skip the images not modified since their last conversion.
package manifest

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/esimov/imgtensor"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
	path TEXT PRIMARY KEY,
	output TEXT NOT NULL,
	modified_at TEXT NOT NULL,
	size INTEGER NOT NULL,
	resampler TEXT NOT NULL,
	status TEXT NOT NULL,
	kind TEXT,
	error TEXT,
	processed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status);`

// Record is a single row of the ledger.
type Record struct {
	Path        string
	Output      string
	ModifiedAt  time.Time
	Size        int64
	Resampler   string
	Status      string
	Kind        string
	Error       string
	ProcessedAt time.Time
}

// Stats holds the number of recorded conversions per status.
type Stats struct {
	Total  int
	OK     int
	Failed int
}

// Manifest is a ledger backed by a SQLite database file.
type Manifest struct {
	db  *sql.DB
	now func() time.Time
}

var _ imgtensor.Ledger = (*Manifest)(nil)

// Open opens the manifest database at path, creating it if necessary.
func Open(path string) (*Manifest, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; the workers share one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create the manifest schema: %w", err)
	}
	return &Manifest{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Get returns the record stored for path. The boolean is false if there is none.
func (m *Manifest) Get(path string) (Record, bool, error) {
	var (
		rec                     Record
		modifiedAt, processedAt string
		kind, errMsg            sql.NullString
	)
	err := m.db.QueryRow(`
		SELECT path, output, modified_at, size, resampler, status, kind, error, processed_at
		FROM conversions WHERE path = ?`, path).Scan(
		&rec.Path, &rec.Output, &modifiedAt, &rec.Size, &rec.Resampler,
		&rec.Status, &kind, &errMsg, &processedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("database error for %s: %w", path, err)
	}

	if rec.ModifiedAt, err = time.Parse(time.RFC3339Nano, modifiedAt); err != nil {
		return Record{}, false, fmt.Errorf("cannot parse stored time for %s: %w", path, err)
	}
	if rec.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt); err != nil {
		return Record{}, false, fmt.Errorf("cannot parse stored time for %s: %w", path, err)
	}
	rec.Kind = kind.String
	rec.Error = errMsg.String

	return rec, true, nil
}

// Unchanged reports whether the image at path has been successfully converted
// with the same resampler, has not been modified since, and its tensor file is still in place.
func (m *Manifest) Unchanged(path string, modTime time.Time, resampler string) (bool, error) {
	rec, ok, err := m.Get(path)
	if err != nil || !ok {
		return false, err
	}
	if rec.Status != imgtensor.StatusOK.String() || rec.Resampler != resampler {
		return false, nil
	}
	if modTime.After(rec.ModifiedAt) {
		return false, nil
	}

	fi, err := os.Stat(rec.Output)
	if err != nil {
		return false, nil
	}
	return fi.Size() == int64(imgtensor.InputShape.Len()*4), nil
}

// Record stores the outcome of a conversion, replacing any previous record of the same image.
func (m *Manifest) Record(res imgtensor.Result, modTime time.Time, size int64, resampler string) error {
	var errMsg sql.NullString
	if res.Err != nil {
		errMsg = sql.NullString{String: res.Err.Error(), Valid: true}
	}

	_, err := m.db.Exec(`
		INSERT OR REPLACE INTO conversions (
			path, output, modified_at, size, resampler, status, kind, error, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Path,
		res.Output,
		modTime.UTC().Format(time.RFC3339Nano),
		size,
		resampler,
		res.Status.String(),
		res.Kind.String(),
		errMsg,
		m.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("cannot insert data for %s: %w", res.Path, err)
	}
	return nil
}

// Stats returns the number of recorded conversions per status.
func (m *Manifest) Stats() (Stats, error) {
	var stats Stats
	err := m.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM conversions`,
		imgtensor.StatusOK.String(), imgtensor.StatusFailed.String(),
	).Scan(&stats.Total, &stats.OK, &stats.Failed)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get manifest stats: %w", err)
	}
	return stats, nil
}
