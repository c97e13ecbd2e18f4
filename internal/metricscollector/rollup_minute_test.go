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
	"testing"
	"time"
)

func insertRaw(t *testing.T, store *Store, ts, name, labels string, value float64, typ string) {
	t.Helper()
	if _, err := store.db.Exec(
		`INSERT INTO metrics_raw (timestamp, name, labels, value, type) VALUES (?, ?, ?, ?, ?)`,
		ts, name, labels, value, typ,
	); err != nil {
		t.Fatalf("insert raw point: %v", err)
	}
}

func TestMinuteRollerAggregatesClosedBucket(t *testing.T) {
	store := newTestStore(t)
	insertRaw(t, store, "2026-01-01T12:00:10Z", "requests", "{}", 1, TypeCounter)
	insertRaw(t, store, "2026-01-01T12:00:40Z", "requests", "{}", 3, TypeCounter)

	roller := NewMinuteRoller(store, time.Minute)
	now := time.Date(2026, 1, 1, 12, 1, 5, 0, time.UTC)
	if err := roller.RollOnce(now); err != nil {
		t.Fatalf("RollOnce: %v", err)
	}

	var count int64
	var sum, min, max, avg float64
	err := store.db.QueryRow(
		`SELECT count, sum, min, max, avg FROM metrics_aggregated WHERE resolution = ? AND name = ?`,
		ResolutionMinute, "requests",
	).Scan(&count, &sum, &min, &max, &avg)
	if err != nil {
		t.Fatalf("query aggregate: %v", err)
	}
	if count != 2 || sum != 4 || min != 1 || max != 3 || avg != 2 {
		t.Fatalf("aggregate = count=%d sum=%v min=%v max=%v avg=%v, want 2/4/1/3/2", count, sum, min, max, avg)
	}
}

func TestMinuteRollerIgnoresOpenBucket(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 1, 1, 12, 1, 5, 0, time.UTC)
	insertRaw(t, store, "2026-01-01T12:01:00Z", "requests", "{}", 1, TypeCounter)

	roller := NewMinuteRoller(store, time.Minute)
	if err := roller.RollOnce(now); err != nil {
		t.Fatalf("RollOnce: %v", err)
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM metrics_aggregated`).Scan(&count); err != nil {
		t.Fatalf("count aggregates: %v", err)
	}
	if count != 0 {
		t.Fatalf("open bucket was rolled up, got %d aggregate rows", count)
	}
}

func TestMinuteRollerIsIdempotentOnRerun(t *testing.T) {
	store := newTestStore(t)
	insertRaw(t, store, "2026-01-01T12:00:10Z", "requests", "{}", 1, TypeCounter)

	roller := NewMinuteRoller(store, time.Minute)
	now := time.Date(2026, 1, 1, 12, 1, 5, 0, time.UTC)
	if err := roller.RollOnce(now); err != nil {
		t.Fatalf("RollOnce 1: %v", err)
	}
	roller.lastTo = ""
	if err := roller.RollOnce(now); err != nil {
		t.Fatalf("RollOnce 2: %v", err)
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM metrics_aggregated`).Scan(&count); err != nil {
		t.Fatalf("count aggregates: %v", err)
	}
	if count != 1 {
		t.Fatalf("rerunning RollOnce produced %d rows, want 1 (upsert)", count)
	}
}

func TestMinuteRollerComputesHistogramPercentiles(t *testing.T) {
	store := newTestStore(t)
	for i := 1; i <= 10; i++ {
		insertRaw(t, store, "2026-01-01T12:00:05Z", "latency", "{}", float64(i), TypeHistogram)
	}

	roller := NewMinuteRoller(store, time.Minute)
	now := time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC)
	if err := roller.RollOnce(now); err != nil {
		t.Fatalf("RollOnce: %v", err)
	}

	var p50, p95, p99 float64
	err := store.db.QueryRow(
		`SELECT p50, p95, p99 FROM metrics_aggregated WHERE name = ?`, "latency",
	).Scan(&p50, &p95, &p99)
	if err != nil {
		t.Fatalf("query percentiles: %v", err)
	}
	if p50 == 0 || p95 == 0 || p99 == 0 {
		t.Fatalf("percentiles not populated for histogram: p50=%v p95=%v p99=%v", p50, p95, p99)
	}
}

func TestMinuteRollerCounterHasNoPercentiles(t *testing.T) {
	store := newTestStore(t)
	insertRaw(t, store, "2026-01-01T12:00:05Z", "requests", "{}", 1, TypeCounter)

	roller := NewMinuteRoller(store, time.Minute)
	now := time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC)
	if err := roller.RollOnce(now); err != nil {
		t.Fatalf("RollOnce: %v", err)
	}

	var p50 *float64
	if err := store.db.QueryRow(`SELECT p50 FROM metrics_aggregated WHERE name = ?`, "requests").Scan(&p50); err != nil {
		t.Fatalf("query p50: %v", err)
	}
	if p50 != nil {
		t.Fatalf("counter metric got a non-null p50: %v", *p50)
	}
}
