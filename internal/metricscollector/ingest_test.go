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
	"path/filepath"
	"testing"
	"time"

	"github.com/mattmezza/monlight/internal/platform/dbstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := dbstore.Open(filepath.Join(dir, "metrics.db"), Migrations)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestValidateRejectsEmptyBatch(t *testing.T) {
	if err := Validate(IngestRequest{}); err == nil {
		t.Fatal("expected error for empty metrics array")
	}
}

func TestValidateRejectsOversizedBatch(t *testing.T) {
	points := make([]Point, MaxIngestPoints+1)
	for i := range points {
		points[i] = Point{Name: "x", Type: TypeCounter, Value: 1}
	}
	if err := Validate(IngestRequest{Metrics: points}); err == nil {
		t.Fatal("expected error for oversized batch")
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	req := IngestRequest{Metrics: []Point{{Name: "x", Type: "bogus", Value: 1}}}
	if err := Validate(req); err == nil {
		t.Fatal("expected error for unknown metric type")
	}
}

func TestValidateRejectsEmptyName(t *testing.T) {
	req := IngestRequest{Metrics: []Point{{Name: "", Type: TypeCounter, Value: 1}}}
	if err := Validate(req); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestCanonicalLabelsSortsKeys(t *testing.T) {
	a, err := canonicalLabels(map[string]interface{}{"b": 1, "a": 2})
	if err != nil {
		t.Fatalf("canonicalLabels: %v", err)
	}
	b, err := canonicalLabels(map[string]interface{}{"a": 2, "b": 1})
	if err != nil {
		t.Fatalf("canonicalLabels: %v", err)
	}
	if a != b {
		t.Fatalf("canonicalLabels not order-independent: %q vs %q", a, b)
	}
	if a != `{"a":2,"b":1}` {
		t.Fatalf("canonicalLabels = %q, want sorted-key JSON", a)
	}
}

func TestCanonicalLabelsEmpty(t *testing.T) {
	s, err := canonicalLabels(nil)
	if err != nil {
		t.Fatalf("canonicalLabels: %v", err)
	}
	if s != "{}" {
		t.Fatalf("canonicalLabels(nil) = %q, want {}", s)
	}
}

func TestIngestInsertsRawPoints(t *testing.T) {
	store := newTestStore(t)
	req := IngestRequest{Metrics: []Point{
		{Name: "http_requests_total", Type: TypeCounter, Value: 1, Labels: map[string]interface{}{"route": "/x"}},
		{Name: "http_request_duration_seconds", Type: TypeHistogram, Value: 0.25},
	}}
	n, err := store.Ingest(req, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 2 {
		t.Fatalf("Ingest returned count %d, want 2", n)
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM metrics_raw`).Scan(&count); err != nil {
		t.Fatalf("count raw rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("metrics_raw has %d rows, want 2", count)
	}
}

func TestIngestDefaultsTimestamp(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	req := IngestRequest{Metrics: []Point{{Name: "x", Type: TypeGauge, Value: 1}}}
	if _, err := store.Ingest(req, now); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	var ts string
	if err := store.db.QueryRow(`SELECT timestamp FROM metrics_raw LIMIT 1`).Scan(&ts); err != nil {
		t.Fatalf("query timestamp: %v", err)
	}
	if ts != "2026-03-04T05:06:07Z" {
		t.Fatalf("timestamp = %q, want defaulted to now", ts)
	}
}

func TestIngestRejectsInvalidBeforeWriting(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Ingest(IngestRequest{}, time.Now())
	if err == nil {
		t.Fatal("expected validation error")
	}
	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM metrics_raw`).Scan(&count); err != nil {
		t.Fatalf("count raw rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("metrics_raw has %d rows after rejected ingest, want 0", count)
	}
}
