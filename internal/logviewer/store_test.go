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
	"path/filepath"
	"testing"

	"github.com/mattmezza/monlight/internal/platform/dbstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := dbstore.Open(filepath.Join(dir, "logs.db"), Migrations)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestInsertBatchAndQueryByContainer(t *testing.T) {
	s := newTestStore(t)
	err := s.InsertBatch([]Entry{
		{Timestamp: "2026-01-01T00:00:00Z", Container: "web", Stream: StreamStdout, Level: LevelInfo, Message: "hello", Raw: "hello"},
		{Timestamp: "2026-01-01T00:00:01Z", Container: "worker", Stream: StreamStdout, Level: LevelInfo, Message: "bye", Raw: "bye"},
	}, 1000)
	if err != nil {
		t.Fatalf("insert batch: %v", err)
	}

	rows, err := s.Query(QueryFilter{Container: "web"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 || rows[0].Message != "hello" {
		t.Fatalf("expected 1 row for web container, got %+v", rows)
	}
}

func TestQueryFullTextSearch(t *testing.T) {
	s := newTestStore(t)
	err := s.InsertBatch([]Entry{
		{Timestamp: "2026-01-01T00:00:00Z", Container: "web", Stream: StreamStdout, Level: LevelInfo, Message: "connection refused", Raw: "connection refused"},
		{Timestamp: "2026-01-01T00:00:01Z", Container: "web", Stream: StreamStdout, Level: LevelInfo, Message: "request completed", Raw: "request completed"},
	}, 1000)
	if err != nil {
		t.Fatalf("insert batch: %v", err)
	}

	rows, err := s.Query(QueryFilter{Search: "refused"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 || rows[0].Message != "connection refused" {
		t.Fatalf("expected the single matching row, got %+v", rows)
	}
}

func TestRingSweepBoundsTotalRows(t *testing.T) {
	s := newTestStore(t)
	maxEntries := 10
	for i := 0; i < 25; i++ {
		err := s.InsertBatch([]Entry{
			{Timestamp: "2026-01-01T00:00:00Z", Container: "web", Stream: StreamStdout, Level: LevelInfo, Message: "x", Raw: "x"},
		}, maxEntries)
		if err != nil {
			t.Fatalf("insert batch %d: %v", i, err)
		}
	}

	rows, err := s.Query(QueryFilter{Container: "web", Limit: 500})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) > maxEntries {
		t.Fatalf("expected at most %d rows after sweeping, got %d", maxEntries, len(rows))
	}
}
