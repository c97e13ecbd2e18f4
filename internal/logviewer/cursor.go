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

package logviewer

import (
	"database/sql"
	"fmt"
	"os"
	"syscall"
)

// CursorStore persists per-file read progress so a restart resumes instead
// of re-ingesting the whole file.
type CursorStore struct {
	db *sql.DB
}

func NewCursorStore(db *sql.DB) *CursorStore { return &CursorStore{db: db} }

// Load fetches the persisted cursor for (containerID, path). If none
// exists, it initializes one at end-of-file so a freshly discovered
// container doesn't replay its entire history.
func (c *CursorStore) Load(containerID, path string) (Cursor, error) {
	var cur Cursor
	cur.ContainerID = containerID
	cur.FilePath = path

	var pos int64
	var inode int64
	err := c.db.QueryRow(
		`SELECT position, inode FROM log_cursors WHERE container_id = ? AND file_path = ?`,
		containerID, path,
	).Scan(&pos, &inode)

	switch {
	case err == sql.ErrNoRows:
		inode, size, statErr := statInode(path)
		if statErr != nil {
			return Cursor{}, fmt.Errorf("stat new log file: %w", statErr)
		}
		cur.Position = size
		cur.Inode = inode
		return cur, c.Save(cur)
	case err != nil:
		return Cursor{}, fmt.Errorf("load cursor: %w", err)
	default:
		cur.Position = pos
		cur.Inode = uint64(inode)
		return cur, nil
	}
}

// Save persists cur, overwriting any prior row for the same key.
func (c *CursorStore) Save(cur Cursor) error {
	_, err := c.db.Exec(
		`INSERT INTO log_cursors (container_id, file_path, position, inode) VALUES (?, ?, ?, ?)
		 ON CONFLICT(container_id, file_path) DO UPDATE SET position = excluded.position, inode = excluded.inode`,
		cur.ContainerID, cur.FilePath, cur.Position, int64(cur.Inode),
	)
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

// statInode returns the file's inode number and current size.
func statInode(path string) (inode uint64, size int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, info.Size(), nil
	}
	return sys.Ino, info.Size(), nil
}
