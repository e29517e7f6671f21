package storage

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SQLite persists values in the app_state table, one row per key.
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite constructs a store over an already migrated database.
func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM app_state WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (s *SQLite) Set(key string, value []byte) error {
	_, err := s.db.Exec(`INSERT INTO app_state (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, string(value))
	return err
}

func (s *SQLite) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM app_state WHERE key = ?`, key)
	return err
}
