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

package browserrelay

import "github.com/mattmezza/monlight/internal/platform/dbstore"

// Migrations is the Browser Relay's append-only schema history.
var Migrations = []dbstore.Migration{
	{
		Version: 1,
		SQL: `
			CREATE TABLE IF NOT EXISTS dsn_keys (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				public_key  TEXT NOT NULL UNIQUE,
				project     TEXT NOT NULL,
				created_at  TEXT NOT NULL,
				active      INTEGER NOT NULL DEFAULT 1
			);
			CREATE INDEX IF NOT EXISTS idx_dsn_keys_public_key_active
				ON dsn_keys(public_key, active);

			CREATE TABLE IF NOT EXISTS source_maps (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				project      TEXT NOT NULL,
				release      TEXT NOT NULL,
				file_url     TEXT NOT NULL,
				map_content  TEXT NOT NULL,
				uploaded_at  TEXT NOT NULL,
				UNIQUE(project, release, file_url)
			);
			CREATE INDEX IF NOT EXISTS idx_source_maps_uploaded_at ON source_maps(uploaded_at);
		`,
	},
}
