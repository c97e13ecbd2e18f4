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

// Package metricscollector implements the metrics aggregation pipeline:
// batch ingest, minute/hour rollups with percentile estimation, tiered
// retention, and dashboard pre-aggregation.
package metricscollector

import "github.com/mattmezza/monlight/internal/platform/dbstore"

var Migrations = []dbstore.Migration{
	{
		Version: 1,
		SQL: `
			CREATE TABLE IF NOT EXISTS metrics_raw (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp TEXT NOT NULL,
				name      TEXT NOT NULL,
				labels    TEXT NOT NULL DEFAULT '{}',
				value     REAL NOT NULL,
				type      TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_metrics_raw_name_timestamp ON metrics_raw(name, timestamp);

			CREATE TABLE IF NOT EXISTS metrics_aggregated (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				bucket     TEXT NOT NULL,
				resolution TEXT NOT NULL,
				name       TEXT NOT NULL,
				labels     TEXT NOT NULL DEFAULT '{}',
				count      INTEGER NOT NULL,
				sum        REAL NOT NULL,
				min        REAL NOT NULL,
				max        REAL NOT NULL,
				avg        REAL NOT NULL,
				p50        REAL,
				p95        REAL,
				p99        REAL,
				UNIQUE(resolution, bucket, name, labels)
			);
			CREATE INDEX IF NOT EXISTS idx_metrics_aggregated_lookup
				ON metrics_aggregated(name, resolution, bucket);
		`,
	},
}
