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
	"time"
)

// Dashboard composes the pre-formatted series GET /api/dashboard returns:
// request rate, latency percentiles, error rate, and the top 10 endpoints
// by request count, all read from already-aggregated rows.
type Dashboard struct {
	RequestRate        []Aggregate     `json:"request_rate"`
	LatencyPercentiles []Aggregate     `json:"latency_percentiles"`
	ErrorRate          []Aggregate     `json:"error_rate"`
	TopEndpoints       []EndpointCount `json:"top_endpoints"`
}

// EndpointCount is one row of the top-endpoints table.
type EndpointCount struct {
	Route string `json:"route"`
	Count int64  `json:"count"`
}

func (s *Store) Dashboard(period time.Duration, now time.Time) (Dashboard, error) {
	requestRate, err := s.Series(SeriesFilter{Name: "http_requests_total", Period: period}, now)
	if err != nil {
		return Dashboard{}, fmt.Errorf("request rate: %w", err)
	}
	latency, err := s.Series(SeriesFilter{Name: "http_request_duration_seconds", Period: period}, now)
	if err != nil {
		return Dashboard{}, fmt.Errorf("latency percentiles: %w", err)
	}
	errorRate, err := s.Series(SeriesFilter{
		Name: "http_requests_total", Period: period, Labels: map[string]string{"status": "5xx"},
	}, now)
	if err != nil {
		return Dashboard{}, fmt.Errorf("error rate: %w", err)
	}

	top, err := s.topEndpoints(period, now)
	if err != nil {
		return Dashboard{}, fmt.Errorf("top endpoints: %w", err)
	}

	return Dashboard{
		RequestRate:        requestRate,
		LatencyPercentiles: latency,
		ErrorRate:          errorRate,
		TopEndpoints:       top,
	}, nil
}

func (s *Store) topEndpoints(period time.Duration, now time.Time) ([]EndpointCount, error) {
	resolution := ResolveResolution("auto", period)
	since := now.Add(-period).UTC().Format("2006-01-02T15:04:05Z")

	rows, err := s.db.Query(
		`SELECT json_extract(labels, '$.route') AS route, SUM(count) AS total
		 FROM metrics_aggregated
		 WHERE resolution = ? AND name = 'http_requests_total' AND bucket >= ?
		 GROUP BY route ORDER BY total DESC LIMIT 10`,
		resolution, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EndpointCount
	for rows.Next() {
		var route sql.NullString
		var count int64
		if err := rows.Scan(&route, &count); err != nil {
			return nil, err
		}
		if !route.Valid {
			continue
		}
		out = append(out, EndpointCount{Route: route.String, Count: count})
	}
	return out, rows.Err()
}
