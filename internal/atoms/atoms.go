// Package atoms is a durable key-value store for host state. Each key holds
// one JSON document in a libSQL table; writes replace the whole value with a
// single upsert, so concurrent readers always see a complete value.
package atoms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("atom not found")

// Keys used by the host.
const (
	KeyGameSetup    = "gameSetup"
	KeyGameName     = "gameName"
	KeyCurrentGame  = "currentGame"
	KeyTeams        = "teams"
	KeyStartText    = "startText"
	KeySession      = "session"
	KeyPendingAward = "pendingAward"
)

// Store reads and writes raw atom values.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Put(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
}

// DBStore implements Store on a libSQL database.
type DBStore struct {
	db *sql.DB
}

func NewDBStore(ctx context.Context, db *sql.DB) (*DBStore, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS atoms (
		key        TEXT PRIMARY KEY,
		data       JSONB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`); err != nil {
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &DBStore{db: db}, nil
}

func (s *DBStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT json(data) FROM atoms WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *DBStore) Put(ctx context.Context, key string, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO atoms (key, data) VALUES (?, jsonb(?))
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data,
		 updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		key, string(value),
	)
	return err
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM atoms WHERE key = ?`, key)
	return err
}

// Keys lists the stored keys in order.
func (s *DBStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM atoms ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Ping reports whether the backing database is reachable.
func (s *DBStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Atom is a typed handle on one key with a default used when the key is unset.
type Atom[T any] struct {
	store Store
	key   string
	def   T
}

// New binds a typed atom to key.
func New[T any](store Store, key string, def T) *Atom[T] {
	return &Atom[T]{store: store, key: key, def: def}
}

func (a *Atom[T]) Key() string { return a.key }

// Load returns the stored value or the default if the key is unset.
func (a *Atom[T]) Load(ctx context.Context) (T, error) {
	raw, err := a.store.Get(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		return a.def, nil
	}
	if err != nil {
		return a.def, fmt.Errorf("loading %s: %w", a.key, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return a.def, fmt.Errorf("decoding %s: %w", a.key, err)
	}
	return v, nil
}

// Save replaces the stored value.
func (a *Atom[T]) Save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", a.key, err)
	}
	if err := a.store.Put(ctx, a.key, data); err != nil {
		return fmt.Errorf("saving %s: %w", a.key, err)
	}
	return nil
}

// Clear removes the key so the next Load yields the default.
func (a *Atom[T]) Clear(ctx context.Context) error {
	if err := a.store.Delete(ctx, a.key); err != nil {
		return fmt.Errorf("clearing %s: %w", a.key, err)
	}
	return nil
}
