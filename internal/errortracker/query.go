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

package errortracker

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("error group not found")

// ListFilter narrows the GET /api/errors listing.
type ListFilter struct {
	Project     string
	Environment string
	Resolved    *bool
	Limit       int
	Offset      int
}

func (s *Store) List(f ListFilter) ([]ErrorGroup, error) {
	query := `SELECT id, fingerprint, project, environment, exception_type, message, traceback,
		count, first_seen, last_seen, resolved, resolved_at FROM errors WHERE 1=1`
	var args []interface{}
	if f.Project != "" {
		query += " AND project = ?"
		args = append(args, f.Project)
	}
	if f.Environment != "" {
		query += " AND environment = ?"
		args = append(args, f.Environment)
	}
	if f.Resolved != nil {
		query += " AND resolved = ?"
		args = append(args, boolToInt(*f.Resolved))
	}
	query += " ORDER BY last_seen DESC"
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list errors: %w", err)
	}
	defer rows.Close()

	var out []ErrorGroup
	for rows.Next() {
		var g ErrorGroup
		var resolvedInt int
		if err := rows.Scan(&g.ID, &g.Fingerprint, &g.Project, &g.Environment, &g.ExceptionType,
			&g.Message, &g.Traceback, &g.Count, &g.FirstSeen, &g.LastSeen, &resolvedInt, &g.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan error group: %w", err)
		}
		g.Resolved = resolvedInt != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

// Get fetches a single error group with its occurrence count and the most
// recent occurrences (up to MaxOccurrencesPerGroup, already enforced by
// the ingest-time ring trim).
func (s *Store) Get(id int64) (ErrorGroup, []Occurrence, error) {
	var g ErrorGroup
	var resolvedInt int
	err := s.db.QueryRow(
		`SELECT id, fingerprint, project, environment, exception_type, message, traceback,
		 count, first_seen, last_seen, resolved, resolved_at FROM errors WHERE id = ?`, id,
	).Scan(&g.ID, &g.Fingerprint, &g.Project, &g.Environment, &g.ExceptionType, &g.Message,
		&g.Traceback, &g.Count, &g.FirstSeen, &g.LastSeen, &resolvedInt, &g.ResolvedAt)
	if err == sql.ErrNoRows {
		return ErrorGroup{}, nil, ErrNotFound
	}
	if err != nil {
		return ErrorGroup{}, nil, fmt.Errorf("get error group: %w", err)
	}
	g.Resolved = resolvedInt != 0

	rows, err := s.db.Query(
		`SELECT id, error_id, timestamp, request_url, request_method, request_headers, user_id, extra, traceback
		 FROM error_occurrences WHERE error_id = ? ORDER BY id DESC`, id,
	)
	if err != nil {
		return ErrorGroup{}, nil, fmt.Errorf("list occurrences: %w", err)
	}
	defer rows.Close()

	var occs []Occurrence
	for rows.Next() {
		var o Occurrence
		if err := rows.Scan(&o.ID, &o.ErrorID, &o.Timestamp, &o.RequestURL, &o.RequestMethod,
			&o.RequestHeaders, &o.UserID, &o.Extra, &o.Traceback); err != nil {
			return ErrorGroup{}, nil, fmt.Errorf("scan occurrence: %w", err)
		}
		occs = append(occs, o)
	}
	g.OccurrenceCount = len(occs)
	return g, occs, rows.Err()
}

// Resolve marks an error group resolved as of now.
func (s *Store) Resolve(id int64, now time.Time) error {
	res, err := s.db.Exec(`UPDATE errors SET resolved = 1, resolved_at = ? WHERE id = ?`, formatTime(now), id)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Projects lists the distinct project names seen across all error groups.
func (s *Store) Projects() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT project FROM errors ORDER BY project`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
