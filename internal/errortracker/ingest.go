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
	"encoding/json"
	"fmt"
	"time"
)

// IngestStatus mirrors the three outcomes of the ingest transaction.
type IngestStatus string

const (
	StatusCreated     IngestStatus = "created"
	StatusReopened    IngestStatus = "reopened"
	StatusIncremented IngestStatus = "incremented"
)

// IngestResult is returned by Ingest.
type IngestResult struct {
	Status      IngestStatus
	ID          int64
	Fingerprint string
	Count       int64
	FirstSeen   string
}

// Store wraps the request-path *sql.DB for error-tracker operations.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Ingest runs the fingerprint-lookup-then-upsert transaction: look up the
// error group by fingerprint, create/reopen/increment as appropriate, then
// append an occurrence row and trim the ring. now is injected so tests can
// control timestamps precisely.
func (s *Store) Ingest(p IngestPayload, now time.Time) (IngestResult, bool, error) {
	fp := Fingerprint(p.Project, p.ExceptionType, p.Traceback, p.Message)
	nowStr := formatTime(now)

	tx, err := s.db.Begin()
	if err != nil {
		return IngestResult{}, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var (
		id        int64
		resolved  bool
		count     int64
		firstSeen string
	)
	err = tx.QueryRow(`SELECT id, resolved, count, first_seen FROM errors WHERE fingerprint = ?`, fp).
		Scan(&id, &resolved, &count, &firstSeen)

	var result IngestResult
	alertable := false

	switch {
	case err == sql.ErrNoRows:
		res, execErr := tx.Exec(
			`INSERT INTO errors (fingerprint, project, environment, exception_type, message, traceback, count, first_seen, last_seen, resolved)
			 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, 0)`,
			fp, p.Project, p.Environment, p.ExceptionType, p.Message, p.Traceback, nowStr, nowStr,
		)
		if execErr != nil {
			return IngestResult{}, false, fmt.Errorf("insert error group: %w", execErr)
		}
		id, execErr = res.LastInsertId()
		if execErr != nil {
			return IngestResult{}, false, fmt.Errorf("last insert id: %w", execErr)
		}
		result = IngestResult{Status: StatusCreated, ID: id, Fingerprint: fp, Count: 1, FirstSeen: nowStr}
		alertable = true

	case err != nil:
		return IngestResult{}, false, fmt.Errorf("lookup fingerprint: %w", err)

	case resolved:
		newCount := count + 1
		if _, execErr := tx.Exec(
			`UPDATE errors SET resolved = 0, resolved_at = NULL, count = ?, last_seen = ?, message = ?, traceback = ?
			 WHERE id = ?`,
			newCount, nowStr, p.Message, p.Traceback, id,
		); execErr != nil {
			return IngestResult{}, false, fmt.Errorf("reopen: %w", execErr)
		}
		result = IngestResult{Status: StatusReopened, ID: id, Fingerprint: fp, Count: newCount, FirstSeen: firstSeen}
		alertable = true

	default:
		newCount := count + 1
		if _, execErr := tx.Exec(
			`UPDATE errors SET count = ?, last_seen = ? WHERE id = ?`,
			newCount, nowStr, id,
		); execErr != nil {
			return IngestResult{}, false, fmt.Errorf("increment: %w", execErr)
		}
		result = IngestResult{Status: StatusIncremented, ID: id, Fingerprint: fp, Count: newCount, FirstSeen: firstSeen}
	}

	if err := insertOccurrence(tx, id, p, nowStr); err != nil {
		return IngestResult{}, false, err
	}
	if err := trimOccurrences(tx, id); err != nil {
		return IngestResult{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return IngestResult{}, false, fmt.Errorf("commit: %w", err)
	}
	ingestTotal.WithLabelValues(string(result.Status)).Inc()
	return result, alertable, nil
}

func insertOccurrence(tx *sql.Tx, errorID int64, p IngestPayload, nowStr string) error {
	var headersJSON, extraJSON sql.NullString
	if len(p.RequestHeaders) > 0 {
		b, err := json.Marshal(p.RequestHeaders)
		if err == nil {
			headersJSON = sql.NullString{String: string(b), Valid: true}
		}
	}
	if len(p.Extra) > 0 {
		b, err := json.Marshal(p.Extra)
		if err == nil {
			extraJSON = sql.NullString{String: string(b), Valid: true}
		}
	}
	_, err := tx.Exec(
		`INSERT INTO error_occurrences (error_id, timestamp, request_url, request_method, request_headers, user_id, extra, traceback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		errorID, nowStr,
		nullIfEmpty(p.RequestURL), nullIfEmpty(p.RequestMethod), headersJSON, nullIfEmpty(p.UserID), extraJSON, p.Traceback,
	)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// trimOccurrences deletes the oldest rows for error_id until at most
// MaxOccurrencesPerGroup remain.
func trimOccurrences(tx *sql.Tx, errorID int64) error {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM error_occurrences WHERE error_id = ?`, errorID).Scan(&n); err != nil {
		return fmt.Errorf("count occurrences: %w", err)
	}
	if n <= MaxOccurrencesPerGroup {
		return nil
	}
	excess := n - MaxOccurrencesPerGroup
	_, err := tx.Exec(
		`DELETE FROM error_occurrences WHERE id IN (
			SELECT id FROM error_occurrences WHERE error_id = ? ORDER BY id ASC LIMIT ?
		)`,
		errorID, excess,
	)
	if err != nil {
		return fmt.Errorf("trim occurrences: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
