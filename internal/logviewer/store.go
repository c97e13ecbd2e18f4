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

package logviewer

import (
	"database/sql"
	"fmt"
)

// Store wraps the logviewer database for both the poller's write path and
// the query/tail read path.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// InsertBatch writes entries in a single transaction; the logs_fts mirror
// is kept current by the insert/delete triggers declared in the schema.
// maxEntries bounds the ring: once exceeded, the oldest rows beyond
// maxEntries (plus retentionMargin slack) are deleted in the same
// transaction.
func (s *Store) InsertBatch(entries []Entry, maxEntries int) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO logs (timestamp, container, stream, level, message, raw) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Timestamp, e.Container, e.Stream, e.Level, e.Message, e.Raw); err != nil {
			return fmt.Errorf("insert log entry: %w", err)
		}
	}

	if err := sweepRing(tx, maxEntries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// sweepRing deletes the oldest rows once the table exceeds maxEntries,
// leaving maxEntries-retentionMargin rows so the sweep doesn't re-trigger
// on the very next insert.
func sweepRing(tx *sql.Tx, maxEntries int) error {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&n); err != nil {
		return fmt.Errorf("count logs: %w", err)
	}
	if n <= maxEntries {
		return nil
	}
	target := maxEntries - retentionMargin
	if target < 0 {
		target = 0
	}
	excess := n - target
	_, err := tx.Exec(
		`DELETE FROM logs WHERE id IN (SELECT id FROM logs ORDER BY id ASC LIMIT ?)`,
		excess,
	)
	if err != nil {
		return fmt.Errorf("sweep ring: %w", err)
	}
	return nil
}

// QueryFilter narrows GET /api/logs.
type QueryFilter struct {
	Container string
	Level     string
	Search    string
	Since     string
	Until     string
	Limit     int
	Offset    int
}

func (s *Store) Query(f QueryFilter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	var (
		query string
		args  []interface{}
	)
	if f.Search != "" {
		query = `SELECT l.id, l.timestamp, l.container, l.stream, l.level, l.message, l.raw
			FROM logs l JOIN logs_fts ON logs_fts.rowid = l.id
			WHERE logs_fts MATCH ?`
		args = append(args, f.Search)
	} else {
		query = `SELECT id, timestamp, container, stream, level, message, raw FROM logs WHERE 1=1`
	}

	if f.Container != "" {
		query += " AND container = ?"
		args = append(args, f.Container)
	}
	if f.Level != "" {
		query += " AND level = ?"
		args = append(args, f.Level)
	}
	if f.Since != "" {
		query += " AND timestamp >= ?"
		args = append(args, f.Since)
	}
	if f.Until != "" {
		query += " AND timestamp <= ?"
		args = append(args, f.Until)
	}
	query += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Container, &e.Stream, &e.Level, &e.Message, &e.Raw); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Containers lists the distinct container names that have logged at least
// one entry.
func (s *Store) Containers() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT container FROM logs ORDER BY container`)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
