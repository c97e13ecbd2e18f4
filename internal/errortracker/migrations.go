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

package errortracker

import "github.com/mattmezza/monlight/internal/platform/dbstore"

// Migrations is the Error Tracker's append-only schema history. Never edit
// a released entry; add a new Version instead.
var Migrations = []dbstore.Migration{
	{
		Version: 1,
		SQL: `
			CREATE TABLE IF NOT EXISTS errors (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				fingerprint   TEXT NOT NULL UNIQUE,
				project       TEXT NOT NULL,
				environment   TEXT NOT NULL,
				exception_type TEXT NOT NULL,
				message       TEXT NOT NULL,
				traceback     TEXT NOT NULL,
				count         INTEGER NOT NULL DEFAULT 1,
				first_seen    TEXT NOT NULL,
				last_seen     TEXT NOT NULL,
				resolved      INTEGER NOT NULL DEFAULT 0,
				resolved_at   TEXT
			);
			CREATE INDEX IF NOT EXISTS idx_errors_project_env_resolved
				ON errors(project, environment, resolved);
			CREATE INDEX IF NOT EXISTS idx_errors_last_seen ON errors(last_seen);

			CREATE TABLE IF NOT EXISTS error_occurrences (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				error_id         INTEGER NOT NULL REFERENCES errors(id) ON DELETE CASCADE,
				timestamp        TEXT NOT NULL,
				request_url      TEXT,
				request_method   TEXT,
				request_headers  TEXT,
				user_id          TEXT,
				extra            TEXT,
				traceback        TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_error_occurrences_error_id
				ON error_occurrences(error_id, id);
		`,
	},
}
