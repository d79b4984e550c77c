// Package sitekv persists site settings as key-value pairs in a sql
// database, with a ristretto cache in front so hot settings never touch the
// database on the read path. Negative lookups are not cached: a setting can
// be created at any time and must become visible on the next read.
package sitekv

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dgraph-io/ristretto"
	_ "github.com/mattn/go-sqlite3"
)

// Store is safe for concurrent use; both the database pool and the cache
// handle their own synchronization.
type Store struct {
	DB    *sql.DB
	cache *ristretto.Cache
}

func Open(driverName, dataSourceName string) (*Store, error) {
	st := &Store{}
	var err error
	st.DB, err = sql.Open(driverName, dataSourceName)
	if err != nil {
		return st, err
	}
	if driverName == "sqlite3" {
		_, err = st.DB.Exec("PRAGMA journal_mode = WAL")
		if err != nil {
			return st, err
		}
		_, err = st.DB.Exec("PRAGMA synchronous = normal")
		if err != nil {
			return st, err
		}
		_, err = st.DB.Exec("PRAGMA foreign_keys = ON")
		if err != nil {
			return st, err
		}
	}
	err = st.DB.Ping()
	if err != nil {
		return st, fmt.Errorf("database ping failed: %w", err)
	}
	_, err = st.DB.Exec("CREATE TABLE IF NOT EXISTS site_kv (key TEXT NOT NULL PRIMARY KEY, value TEXT)")
	if err != nil {
		return st, err
	}
	st.cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,     // number of keys to track frequency of (10M).
		MaxCost:     1 << 30, // maximum cost of cache (1GB).
		BufferItems: 64,      // number of keys per Get buffer.
		Metrics:     true,
	})
	if err != nil {
		return st, err
	}
	return st, nil
}

// Get returns the value for key, reporting through ok whether the key
// exists at all.
func (st *Store) Get(key string) (value string, ok bool, err error) {
	if cached, ok := st.cache.Get(key); ok {
		if value, ok := cached.(string); ok {
			return value, true, nil
		}
		st.cache.Del(key)
	}
	var row sql.NullString
	err = st.DB.QueryRow("SELECT value FROM site_kv WHERE key = ?", key).Scan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	st.cache.Set(key, row.String, 0)
	return row.String, true, nil
}

// Set upserts the value for key and refreshes the cache.
func (st *Store) Set(key, value string) error {
	_, err := st.DB.Exec(
		"INSERT INTO site_kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return err
	}
	st.cache.Set(key, value, 0)
	return nil
}

// Delete removes key from the database and the cache.
func (st *Store) Delete(key string) error {
	_, err := st.DB.Exec("DELETE FROM site_kv WHERE key = ?", key)
	if err != nil {
		return err
	}
	st.cache.Del(key)
	return nil
}

func (st *Store) Close() error {
	// only does anything for sqlite3
	_, _ = st.DB.Exec("PRAGMA optimize")
	return st.DB.Close()
}
