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

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ValidationError marks a 400-worthy source-map upload failure.
type ValidationError struct{ Detail string }

func (e ValidationError) Error() string { return e.Detail }

// rawSourceMap is just enough of Source Map v3 to validate the shape
// before storing the document verbatim.
type rawSourceMap struct {
	Version  interface{}   `json:"version"`
	Sources  []interface{} `json:"sources"`
	Mappings *string       `json:"mappings"`
}

// ValidateSourceMapJSON checks that content parses as an object with a
// numeric version, a sources array, and a mappings string.
func ValidateSourceMapJSON(content string) error {
	if len(content) > MaxSourceMapBytes {
		return ValidationError{"map_content exceeds 5 MiB"}
	}
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	var raw rawSourceMap
	if err := dec.Decode(&raw); err != nil {
		return ValidationError{"map_content is not valid JSON"}
	}
	// With UseNumber, only a JSON number decodes to json.Number; a quoted
	// string such as "3" decodes to string and is rejected here.
	version, ok := raw.Version.(json.Number)
	if !ok {
		return ValidationError{"map_content.version must be numeric"}
	}
	if _, err := version.Float64(); err != nil {
		return ValidationError{"map_content.version must be numeric"}
	}
	if raw.Sources == nil {
		return ValidationError{"map_content.sources must be an array"}
	}
	if raw.Mappings == nil {
		return ValidationError{"map_content.mappings must be a string"}
	}
	return nil
}

// UpsertSourceMap inserts or replaces the row for (project, release,
// file_url): a second upload with the same key leaves exactly one row.
func (s *Store) UpsertSourceMap(sm SourceMap, now time.Time) (int64, error) {
	if err := ValidateSourceMapJSON(sm.MapContent); err != nil {
		return 0, err
	}
	uploadedAt := now.UTC().Format("2006-01-02T15:04:05Z")
	res, err := s.db.Exec(
		`INSERT INTO source_maps (project, release, file_url, map_content, uploaded_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(project, release, file_url)
		 DO UPDATE SET map_content = excluded.map_content, uploaded_at = excluded.uploaded_at`,
		sm.Project, sm.Release, sm.FileURL, sm.MapContent, uploadedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert source map: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		return id, nil
	}
	var id int64
	err = s.db.QueryRow(
		`SELECT id FROM source_maps WHERE project = ? AND release = ? AND file_url = ?`,
		sm.Project, sm.Release, sm.FileURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("lookup upserted source map: %w", err)
	}
	return id, nil
}

// SourceMapFilter narrows GET /api/source-maps.
type SourceMapFilter struct {
	Project string
	Release string
}

// ListSourceMaps returns source maps matching f, most recently uploaded first.
func (s *Store) ListSourceMaps(f SourceMapFilter) ([]SourceMap, error) {
	query := `SELECT id, project, release, file_url, map_content, uploaded_at FROM source_maps WHERE 1=1`
	var args []interface{}
	if f.Project != "" {
		query += " AND project = ?"
		args = append(args, f.Project)
	}
	if f.Release != "" {
		query += " AND release = ?"
		args = append(args, f.Release)
	}
	query += " ORDER BY uploaded_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query source maps: %w", err)
	}
	defer rows.Close()

	out := []SourceMap{}
	for rows.Next() {
		var m SourceMap
		if err := rows.Scan(&m.ID, &m.Project, &m.Release, &m.FileURL, &m.MapContent, &m.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan source map: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteSourceMap removes the row with id.
func (s *Store) DeleteSourceMap(id int64) error {
	res, err := s.db.Exec(`DELETE FROM source_maps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete source map: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// lookupSourceMap fetches the raw map_content for (project, release,
// file_url), used by stack rewriting. Returns ErrNotFound on a miss.
func (s *Store) lookupSourceMap(project, release, fileURL string) (string, error) {
	var content string
	err := s.db.QueryRow(
		`SELECT map_content FROM source_maps WHERE project = ? AND release = ? AND file_url = ?`,
		project, release, fileURL,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup source map: %w", err)
	}
	return content, nil
}
