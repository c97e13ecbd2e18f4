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
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// HourRoller merges closed minute aggregates into hourly buckets.
// Percentile merging here is a weighted average of the minute percentiles,
// not a recomputation from raw samples: an acknowledged approximation.
type HourRoller struct {
	store    *Store
	interval time.Duration
	lastTo   string

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  uint32
}

func NewHourRoller(store *Store, interval time.Duration) *HourRoller {
	return &HourRoller{store: store, interval: interval, stopChan: make(chan struct{})}
}

func (h *HourRoller) Start() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.loop()
	}()
}

func (h *HourRoller) Stop() {
	if !atomic.CompareAndSwapUint32(&h.stopped, 0, 1) {
		return
	}
	close(h.stopChan)
	h.wg.Wait()
}

func (h *HourRoller) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := h.RollOnce(start); err != nil {
				log.Printf("metrics-collector: hourly rollup failed: %v", err)
			}
			rollupDuration.WithLabelValues(ResolutionHour).Observe(time.Since(start).Seconds())
		}
	}
}

type hourGroup struct {
	count                  int64
	sum, min, max          float64
	p50Sum, p95Sum, p99Sum float64
	weightedSamples        int64
	initialized            bool
}

// RollOnce merges minute aggregates in [lastTo, currentHourFloor) into
// hourly rows.
func (h *HourRoller) RollOnce(now time.Time) error {
	closeBefore := now.UTC().Truncate(time.Hour).Format("2006-01-02T15:04:05Z")
	from := h.lastTo
	if from == "" {
		from = "0000-01-01T00:00:00Z"
	}
	if from >= closeBefore {
		return nil
	}

	rows, err := h.store.db.Query(
		`SELECT bucket, name, labels, count, sum, min, max, p50, p95, p99
		 FROM metrics_aggregated WHERE resolution = ? AND bucket >= ? AND bucket < ?`,
		ResolutionMinute, from, closeBefore,
	)
	if err != nil {
		return fmt.Errorf("select minute aggregates: %w", err)
	}

	groups := make(map[groupKey]*hourGroup)
	for rows.Next() {
		var bucket, name, labels string
		var count int64
		var sum, min, max float64
		var p50, p95, p99 sql.NullFloat64
		if err := rows.Scan(&bucket, &name, &labels, &count, &sum, &min, &max, &p50, &p95, &p99); err != nil {
			rows.Close()
			return fmt.Errorf("scan minute aggregate: %w", err)
		}
		key := groupKey{bucket: hourBucket(bucket), name: name, labels: labels}
		g, ok := groups[key]
		if !ok {
			g = &hourGroup{}
			groups[key] = g
		}
		if !g.initialized {
			g.min, g.max = min, max
			g.initialized = true
		}
		g.count += count
		g.sum += sum
		if min < g.min {
			g.min = min
		}
		if max > g.max {
			g.max = max
		}
		if p50.Valid {
			g.p50Sum += p50.Float64 * float64(count)
			g.p95Sum += p95.Float64 * float64(count)
			g.p99Sum += p99.Float64 * float64(count)
			g.weightedSamples += count
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate minute aggregates: %w", err)
	}
	rows.Close()

	if len(groups) == 0 {
		h.lastTo = closeBefore
		return nil
	}

	tx, err := h.store.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO metrics_aggregated (bucket, resolution, name, labels, count, sum, min, max, avg, p50, p95, p99)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(resolution, bucket, name, labels) DO UPDATE SET
			count = excluded.count, sum = excluded.sum, min = excluded.min, max = excluded.max,
			avg = excluded.avg, p50 = excluded.p50, p95 = excluded.p95, p99 = excluded.p99
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for key, g := range groups {
		avg := 0.0
		if g.count > 0 {
			avg = g.sum / float64(g.count)
		}
		var p50, p95, p99 *float64
		if g.weightedSamples > 0 {
			v50 := g.p50Sum / float64(g.weightedSamples)
			v95 := g.p95Sum / float64(g.weightedSamples)
			v99 := g.p99Sum / float64(g.weightedSamples)
			p50, p95, p99 = &v50, &v95, &v99
		}
		if _, err := stmt.Exec(
			key.bucket, ResolutionHour, key.name, key.labels,
			g.count, g.sum, g.min, g.max, avg, p50, p95, p99,
		); err != nil {
			return fmt.Errorf("upsert hour aggregate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	h.lastTo = closeBefore
	return nil
}

func hourBucket(minuteBucket string) string {
	if len(minuteBucket) >= 13 {
		return minuteBucket[:13] + ":00:00Z"
	}
	return minuteBucket
}
