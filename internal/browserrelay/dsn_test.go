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
	"path/filepath"
	"testing"
	"time"

	"github.com/mattmezza/monlight/internal/platform/dbstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := dbstore.Open(filepath.Join(dir, "browser-relay.db"), Migrations)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestCreateDSNKeyIsUniqueAndActive(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a, err := s.CreateDSNKey("webapp", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := s.CreateDSNKey("webapp", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.PublicKey == b.PublicKey {
		t.Fatal("expected distinct public keys")
	}
	if !a.Active || a.Project != "webapp" {
		t.Fatalf("unexpected key: %+v", a)
	}
	if len(a.PublicKey) != 32 {
		t.Errorf("public key length = %d, want 32", len(a.PublicKey))
	}
}

func TestResolveDSNFindsActiveKeyOnly(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	key, err := s.CreateDSNKey("webapp", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	project, ok, err := s.ResolveDSN(key.PublicKey)
	if err != nil || !ok || project != "webapp" {
		t.Fatalf("resolve = (%q, %v, %v), want (webapp, true, nil)", project, ok, err)
	}

	if err := s.DeactivateDSNKey(key.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, ok, err = s.ResolveDSN(key.PublicKey)
	if err != nil {
		t.Fatalf("resolve after deactivate: %v", err)
	}
	if ok {
		t.Fatal("expected deactivated key to no longer resolve")
	}
}

func TestResolveDSNUnknownKeyMisses(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.ResolveDSN("nonexistent")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ok {
		t.Fatal("expected miss for unknown public key")
	}
}

func TestDeactivateDSNKeyUnknownIDReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeactivateDSNKey(999); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListDSNKeysIncludesDeactivated(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	key, err := s.CreateDSNKey("webapp", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeactivateDSNKey(key.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	keys, err := s.ListDSNKeys()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 || keys[0].Active {
		t.Fatalf("got %+v, want one deactivated key", keys)
	}
}
