// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dbstore opens the per-service SQLite database and applies its
// append-only migration array. Every service declares its own migrations;
// this package only knows how to open the file and play them forward.
//
// Schema (reference, per service — kept here rather than in a separate doc
// since each service's migrations.go is the single source of truth):
//
//	CREATE TABLE IF NOT EXISTS _meta (
//	  key   TEXT PRIMARY KEY,
//	  value TEXT NOT NULL
//	);
package dbstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Migration is one forward-only step. Version must be strictly increasing
// across a service's migration slice, starting at 1. SQL should use
// "IF NOT EXISTS" so re-application (e.g. during tests) is harmless, but
// in normal operation a migration only ever runs once per database file.
type Migration struct {
	Version int
	SQL     string
}

// Open opens the SQLite file at path, applies the four PRAGMAs (WAL mode,
// busy_timeout, synchronous NORMAL, foreign_keys), and plays forward any
// migrations not yet recorded in _meta. Each service calls Open once and
// its background workers share the returned *sql.DB with the request path;
// WAL mode allows concurrent readers and a single writer, and busy_timeout
// absorbs the resulting contention.
func Open(path string, migrations []Migration) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_foreign_keys=on",
		path,
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create _meta: %w", err)
	}
	if err := migrate(db, migrations); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB, migrations []Migration) error {
	version := schemaVersion(db)
	for _, m := range migrations {
		if m.Version <= version {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO _meta(key, value) VALUES ('schema_version', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			fmt.Sprintf("%d", m.Version),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
		version = m.Version
	}
	return nil
}

func schemaVersion(db *sql.DB) int {
	var raw string
	err := db.QueryRow(`SELECT value FROM _meta WHERE key = 'schema_version'`).Scan(&raw)
	if err != nil {
		return 0
	}
	var v int
	fmt.Sscanf(raw, "%d", &v)
	return v
}
