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

package metricscollector

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

var validTypes = map[string]bool{TypeCounter: true, TypeHistogram: true, TypeGauge: true}

// Store wraps the metrics-collector database for both ingest and rollups.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// ValidationError marks a 400-worthy ingest failure.
type ValidationError struct{ Detail string }

func (e ValidationError) Error() string { return e.Detail }

// Validate checks the structural constraints on an ingest request.
func Validate(req IngestRequest) error {
	if len(req.Metrics) == 0 {
		return ValidationError{"metrics must be a non-empty array"}
	}
	if len(req.Metrics) > MaxIngestPoints {
		return ValidationError{fmt.Sprintf("at most %d metrics per request", MaxIngestPoints)}
	}
	for i, p := range req.Metrics {
		if p.Name == "" || len(p.Name) > 200 {
			return ValidationError{fmt.Sprintf("metrics[%d].name must be 1-200 chars", i)}
		}
		if !validTypes[p.Type] {
			return ValidationError{fmt.Sprintf("metrics[%d].type must be counter, histogram, or gauge", i)}
		}
	}
	return nil
}

// canonicalLabels serializes labels with keys sorted lexicographically, so
// that (name, labels) grouping is deterministic regardless of field order
// in the inbound JSON.
func canonicalLabels(labels map[string]interface{}) (string, error) {
	if len(labels) == 0 {
		return "{}", nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf []byte
	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return "", err
		}
		valJSON, err := json.Marshal(labels[k])
		if err != nil {
			return "", err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return string(buf), nil
}

// Ingest validates and inserts req.Metrics in a single transaction,
// preparing the insert statement once and reusing it per row.
func (s *Store) Ingest(req IngestRequest, now time.Time) (int, error) {
	if err := Validate(req); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO metrics_raw (timestamp, name, labels, value, type) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range req.Metrics {
		ts := p.Timestamp
		if ts == "" {
			ts = now.UTC().Format("2006-01-02T15:04:05Z")
		}
		labels, err := canonicalLabels(p.Labels)
		if err != nil {
			return 0, fmt.Errorf("serialize labels: %w", err)
		}
		if _, err := stmt.Exec(ts, p.Name, labels, p.Value, p.Type); err != nil {
			return 0, fmt.Errorf("insert metric point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	pointsIngestedTotal.Add(float64(len(req.Metrics)))
	return len(req.Metrics), nil
}
