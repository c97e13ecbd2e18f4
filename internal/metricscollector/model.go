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

const (
	TypeCounter   = "counter"
	TypeHistogram = "histogram"
	TypeGauge     = "gauge"

	ResolutionMinute = "minute"
	ResolutionHour   = "hour"

	MaxIngestPoints = 1000
)

// Point is one inbound metric sample from POST /api/metrics.
type Point struct {
	Name      string                 `json:"name"`
	Type      string                 `json:"type"`
	Value     float64                `json:"value"`
	Labels    map[string]interface{} `json:"labels,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// IngestRequest is the body of POST /api/metrics.
type IngestRequest struct {
	Metrics []Point `json:"metrics"`
}

// Aggregate is a row of metrics_aggregated.
type Aggregate struct {
	ID         int64    `json:"id"`
	Bucket     string   `json:"bucket"`
	Resolution string   `json:"resolution"`
	Name       string   `json:"name"`
	Labels     string   `json:"labels"`
	Count      int64    `json:"count"`
	Sum        float64  `json:"sum"`
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	Avg        float64  `json:"avg"`
	P50        *float64 `json:"p50,omitempty"`
	P95        *float64 `json:"p95,omitempty"`
	P99        *float64 `json:"p99,omitempty"`
}
