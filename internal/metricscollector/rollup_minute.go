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
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// groupKey identifies one (bucket, name, labels) aggregation group.
type groupKey struct {
	bucket string
	name   string
	labels string
}

// MinuteRoller groups raw points into closed minute buckets and writes
// metrics_aggregated rows. Only buckets strictly older than the current
// minute are considered closed.
type MinuteRoller struct {
	store    *Store
	interval time.Duration
	lastTo   string // exclusive upper bound already processed, ISO-8601

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  uint32
}

func NewMinuteRoller(store *Store, interval time.Duration) *MinuteRoller {
	return &MinuteRoller{store: store, interval: interval, stopChan: make(chan struct{})}
}

func (m *MinuteRoller) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.loop()
	}()
}

func (m *MinuteRoller) Stop() {
	if !atomic.CompareAndSwapUint32(&m.stopped, 0, 1) {
		return
	}
	close(m.stopChan)
	m.wg.Wait()
}

func (m *MinuteRoller) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := m.RollOnce(start); err != nil {
				log.Printf("metrics-collector: minute rollup failed: %v", err)
			}
			rollupDuration.WithLabelValues(ResolutionMinute).Observe(time.Since(start).Seconds())
		}
	}
}

// RollOnce aggregates every raw point in [lastTo, currentMinuteFloor) into
// minute buckets, writes them via INSERT ... ON CONFLICT DO UPDATE (so a
// rerun overwrites the bucket's row), and advances lastTo.
func (m *MinuteRoller) RollOnce(now time.Time) error {
	closeBefore := now.UTC().Truncate(time.Minute).Format("2006-01-02T15:04:05Z")
	from := m.lastTo
	if from == "" {
		from = "0000-01-01T00:00:00Z"
	}
	if from >= closeBefore {
		return nil
	}

	rows, err := m.store.db.Query(
		`SELECT timestamp, name, labels, value, type FROM metrics_raw WHERE timestamp >= ? AND timestamp < ?`,
		from, closeBefore,
	)
	if err != nil {
		return fmt.Errorf("select raw points: %w", err)
	}

	type group struct {
		typ    string
		values []float64
	}
	groups := make(map[groupKey]*group)

	for rows.Next() {
		var ts, name, labels, typ string
		var value float64
		if err := rows.Scan(&ts, &name, &labels, &value, &typ); err != nil {
			rows.Close()
			return fmt.Errorf("scan raw point: %w", err)
		}
		bucket := minuteBucket(ts)
		key := groupKey{bucket: bucket, name: name, labels: labels}
		g, ok := groups[key]
		if !ok {
			g = &group{typ: typ}
			groups[key] = g
		}
		g.values = append(g.values, value)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate raw points: %w", err)
	}
	rows.Close()

	if len(groups) == 0 {
		m.lastTo = closeBefore
		return nil
	}

	tx, err := m.store.db.Begin()
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
		agg := summarize(g.values)
		var p50, p95, p99 *float64
		if g.typ == TypeHistogram {
			v50, v95, v99 := Percentiles(g.values)
			p50, p95, p99 = &v50, &v95, &v99
		}
		if _, err := stmt.Exec(
			key.bucket, ResolutionMinute, key.name, key.labels,
			agg.count, agg.sum, agg.min, agg.max, agg.avg, p50, p95, p99,
		); err != nil {
			return fmt.Errorf("upsert minute aggregate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	m.lastTo = closeBefore
	return nil
}

func minuteBucket(ts string) string {
	if len(ts) >= 16 {
		return ts[:16] + ":00Z"
	}
	return ts
}

type summary struct {
	count int64
	sum   float64
	min   float64
	max   float64
	avg   float64
}

func summarize(values []float64) summary {
	if len(values) == 0 {
		return summary{}
	}
	s := summary{min: values[0], max: values[0]}
	for _, v := range values {
		s.count++
		s.sum += v
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	s.avg = s.sum / float64(s.count)
	return s
}
