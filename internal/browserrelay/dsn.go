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
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks a lookup that found no matching row.
var ErrNotFound = errors.New("not found")

// Store wraps the browser-relay database: DSN keys and source maps.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// newPublicKey generates a 32-char hex DSN public key from 16 random bytes.
func newPublicKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate dsn key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateDSNKey generates and inserts a new active DSN key for project.
func (s *Store) CreateDSNKey(project string, now time.Time) (DSNKey, error) {
	key, err := newPublicKey()
	if err != nil {
		return DSNKey{}, err
	}
	createdAt := now.UTC().Format("2006-01-02T15:04:05Z")
	res, err := s.db.Exec(
		`INSERT INTO dsn_keys (public_key, project, created_at, active) VALUES (?, ?, ?, 1)`,
		key, project, createdAt,
	)
	if err != nil {
		return DSNKey{}, fmt.Errorf("insert dsn key: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return DSNKey{}, fmt.Errorf("last insert id: %w", err)
	}
	return DSNKey{ID: id, PublicKey: key, Project: project, CreatedAt: createdAt, Active: true}, nil
}

// ListDSNKeys returns every DSN key, active or not.
func (s *Store) ListDSNKeys() ([]DSNKey, error) {
	rows, err := s.db.Query(`SELECT id, public_key, project, created_at, active FROM dsn_keys ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query dsn keys: %w", err)
	}
	defer rows.Close()

	out := []DSNKey{}
	for rows.Next() {
		var k DSNKey
		if err := rows.Scan(&k.ID, &k.PublicKey, &k.Project, &k.CreatedAt, &k.Active); err != nil {
			return nil, fmt.Errorf("scan dsn key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// DeactivateDSNKey soft-deactivates the key with id; DSN keys are never
// hard-deleted.
func (s *Store) DeactivateDSNKey(id int64) error {
	res, err := s.db.Exec(`UPDATE dsn_keys SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate dsn key: %w", err)
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

// ResolveDSN looks up the project owning an active public_key. It is the
// lookup function handed to httpgate.DSNAuth.
func (s *Store) ResolveDSN(publicKey string) (string, bool, error) {
	var project string
	err := s.db.QueryRow(
		`SELECT project FROM dsn_keys WHERE public_key = ? AND active = 1`, publicKey,
	).Scan(&project)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve dsn: %w", err)
	}
	return project, true, nil
}
