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

// Package logviewer implements the Docker log ingestion pipeline: file
// discovery and cursor tracking across rotations, multiline reassembly,
// an FTS5-backed search index, and a live SSE tail with bounded
// per-client backpressure.
package logviewer

import "github.com/mattmezza/monlight/internal/platform/dbstore"

var Migrations = []dbstore.Migration{
	{
		Version: 1,
		SQL: `
			CREATE TABLE IF NOT EXISTS logs (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp TEXT NOT NULL,
				container TEXT NOT NULL,
				stream    TEXT NOT NULL,
				level     TEXT NOT NULL,
				message   TEXT NOT NULL,
				raw       TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_logs_container_timestamp ON logs(container, timestamp);
			CREATE INDEX IF NOT EXISTS idx_logs_level ON logs(level);

			CREATE VIRTUAL TABLE IF NOT EXISTS logs_fts USING fts5(
				message, content='logs', content_rowid='id'
			);

			CREATE TRIGGER IF NOT EXISTS logs_ai AFTER INSERT ON logs BEGIN
				INSERT INTO logs_fts(rowid, message) VALUES (new.id, new.message);
			END;
			CREATE TRIGGER IF NOT EXISTS logs_ad AFTER DELETE ON logs BEGIN
				INSERT INTO logs_fts(logs_fts, rowid, message) VALUES ('delete', old.id, old.message);
			END;

			CREATE TABLE IF NOT EXISTS log_cursors (
				container_id TEXT NOT NULL,
				file_path    TEXT NOT NULL,
				position     INTEGER NOT NULL DEFAULT 0,
				inode        INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (container_id, file_path)
			);
		`,
	},
}
