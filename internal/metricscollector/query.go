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
	"strings"
	"time"
)

// SeriesFilter narrows GET /api/metrics.
type SeriesFilter struct {
	Name       string
	Period     time.Duration
	Resolution string // "minute", "hour", or "auto"
	Labels     map[string]string
}

// ResolveResolution picks minute vs. hour the way "auto" is specified:
// periods of 24h or less get minute granularity, longer periods get hour.
func ResolveResolution(requested string, period time.Duration) string {
	if requested != "" && requested != "auto" {
		return requested
	}
	if period <= 24*time.Hour {
		return ResolutionMinute
	}
	return ResolutionHour
}

// ParseLabelFilter parses a "k:v,k2:v2" query parameter into a map.
func ParseLabelFilter(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}

// isSafeLabelKey restricts json_extract path segments to identifier
// characters, since the key is interpolated directly into the query
// string (json_extract paths can't be bound as ordinary parameters).
func isSafeLabelKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// Series returns the ordered timeseries of aggregates matching f.
func (s *Store) Series(f SeriesFilter, now time.Time) ([]Aggregate, error) {
	resolution := ResolveResolution(f.Resolution, f.Period)
	since := now.Add(-f.Period).UTC().Format("2006-01-02T15:04:05Z")

	query := `SELECT id, bucket, resolution, name, labels, count, sum, min, max, avg, p50, p95, p99
		FROM metrics_aggregated WHERE resolution = ? AND name = ? AND bucket >= ?`
	args := []interface{}{resolution, f.Name, since}

	for k, v := range f.Labels {
		if !isSafeLabelKey(k) {
			continue
		}
		query += fmt.Sprintf(" AND json_extract(labels, '$.%s') = ?", k)
		args = append(args, v)
	}
	query += " ORDER BY bucket ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var out []Aggregate
	for rows.Next() {
		var a Aggregate
		if err := rows.Scan(&a.ID, &a.Bucket, &a.Resolution, &a.Name, &a.Labels,
			&a.Count, &a.Sum, &a.Min, &a.Max, &a.Avg, &a.P50, &a.P95, &a.P99); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
