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

// Package browserrelay implements the Browser Relay's ingestion gateway:
// a DSN credential plane, CORS for /api/browser/*, source-map-backed
// stack rewriting, and forwarding of enriched payloads to the Error
// Tracker and Metrics Collector.
package browserrelay

// MaxSourceMapBytes bounds the size of an uploaded map_content payload.
const MaxSourceMapBytes = 5 << 20

// DSNKey is a row of the dsn_keys table.
type DSNKey struct {
	ID        int64  `json:"id"`
	PublicKey string `json:"public_key"`
	Project   string `json:"project"`
	CreatedAt string `json:"created_at"`
	Active    bool   `json:"active"`
}

// SourceMap is a row of the source_maps table.
type SourceMap struct {
	ID         int64  `json:"id"`
	Project    string `json:"project"`
	Release    string `json:"release"`
	FileURL    string `json:"file_url"`
	MapContent string `json:"map_content"`
	UploadedAt string `json:"uploaded_at"`
}

// BrowserErrorPayload is the body of POST /api/browser/errors.
type BrowserErrorPayload struct {
	Type        string                 `json:"type"`
	Message     string                 `json:"message"`
	Stack       string                 `json:"stack"`
	URL         string                 `json:"url"`
	UserAgent   string                 `json:"user_agent"`
	SessionID   string                 `json:"session_id"`
	Release     string                 `json:"release"`
	Timestamp   string                 `json:"timestamp"`
	Environment string                 `json:"environment"`
	Context     map[string]interface{} `json:"context"`
}

// BrowserMetricPoint is one entry of POST /api/browser/metrics' metrics array.
type BrowserMetricPoint struct {
	Name      string                 `json:"name"`
	Type      string                 `json:"type"`
	Value     float64                `json:"value"`
	Labels    map[string]interface{} `json:"labels,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// BrowserMetricsPayload is the body of POST /api/browser/metrics.
type BrowserMetricsPayload struct {
	Metrics   []BrowserMetricPoint `json:"metrics"`
	SessionID string               `json:"session_id"`
	URL       string               `json:"url"`
}

// errorTrackerPayload is what gets forwarded to the Error Tracker's
// POST /api/errors, built from a BrowserErrorPayload plus the DSN-resolved
// project and the rewritten stack.
type errorTrackerPayload struct {
	Project       string                 `json:"project"`
	Environment   string                 `json:"environment"`
	ExceptionType string                 `json:"exception_type"`
	Message       string                 `json:"message"`
	Traceback     string                 `json:"traceback"`
	RequestURL    string                 `json:"request_url"`
	RequestMethod string                 `json:"request_method"`
	Extra         map[string]interface{} `json:"extra"`
}

// metricsCollectorPayload is what gets forwarded to the Metrics
// Collector's POST /api/metrics.
type metricsCollectorPayload struct {
	Metrics []BrowserMetricPoint `json:"metrics"`
}
