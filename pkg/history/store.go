// Package history keeps a local sqlite log of notarizations submitted from
// this machine.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DBBusyTimeout  = 5 * time.Second
	DBCacheSizeKiB = 2048
)

const createNotarizationTable = `
CREATE TABLE IF NOT EXISTS notarization (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  correlation_id TEXT NOT NULL,
  digest TEXT NOT NULL,
  algorithm TEXT NOT NULL,
  description TEXT NOT NULL,
  sender TEXT NOT NULL,
  contract TEXT NOT NULL,
  tx_hash TEXT NOT NULL DEFAULT '',
  block_number INTEGER NOT NULL DEFAULT 0,
  gas_used INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  last_error TEXT NOT NULL DEFAULT '',
  created_at_unix INTEGER NOT NULL
);`

const createDigestIndex = `CREATE INDEX IF NOT EXISTS idx_notarization_digest ON notarization (digest);`

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusReverted  Status = "reverted"
	StatusFailed    Status = "failed"
)

// Entry is one notarization attempt.
type Entry struct {
	ID            int64  `db:"id"`
	CorrelationID string `db:"correlation_id"`
	Digest        string `db:"digest"`
	Algorithm     string `db:"algorithm"`
	Description   string `db:"description"`
	Sender        string `db:"sender"`
	Contract      string `db:"contract"`
	TxHash        string `db:"tx_hash"`
	BlockNumber   uint64 `db:"block_number"`
	GasUsed       uint64 `db:"gas_used"`
	Status        Status `db:"status"`
	LastError     string `db:"last_error"`
	CreatedAtUnix int64  `db:"created_at_unix"`
}

// CreatedAt returns the local creation time.
func (e Entry) CreatedAt() time.Time {
	return time.Unix(e.CreatedAtUnix, 0)
}

type Store struct {
	db *sqlx.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("cannot create history directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open history sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		fmt.Sprintf("PRAGMA cache_size=-%d;", DBCacheSizeKiB),
		fmt.Sprintf("PRAGMA busy_timeout=%d;", int64(DBBusyTimeout/time.Millisecond)),
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cannot set sqlite database parameter: %w", err)
		}
	}

	if _, err := db.Exec(createNotarizationTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot create notarization table: %w", err)
	}
	if _, err := db.Exec(createDigestIndex); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot create notarization index: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts e and returns its row ID.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	if e.Digest == "" {
		return 0, fmt.Errorf("digest is required")
	}
	if e.Status == "" {
		return 0, fmt.Errorf("status is required")
	}
	if e.CreatedAtUnix == 0 {
		e.CreatedAtUnix = time.Now().Unix()
	}

	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO notarization (correlation_id, digest, algorithm, description, sender, contract, tx_hash, block_number, gas_used, status, last_error, created_at_unix)
		 VALUES (:correlation_id, :digest, :algorithm, :description, :sender, :contract, :tx_hash, :block_number, :gas_used, :status, :last_error, :created_at_unix)`,
		e,
	)
	if err != nil {
		return 0, fmt.Errorf("insert notarization: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("notarization id: %w", err)
	}
	return id, nil
}

// List returns the most recent entries first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	query := `SELECT * FROM notarization ORDER BY created_at_unix DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var out []Entry
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query notarization: %w", err)
	}
	return out, nil
}

// FindByDigest returns every recorded attempt for digest, newest first.
func (s *Store) FindByDigest(ctx context.Context, digest string) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	var out []Entry
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM notarization WHERE digest = ? ORDER BY created_at_unix DESC, id DESC`, digest)
	if err != nil {
		return nil, fmt.Errorf("query notarization by digest: %w", err)
	}
	return out, nil
}
