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

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newTestServerHTTP(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	store := newTestStore(t)
	srv := NewServer(store, nil)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, store
}

func ingestSample(t *testing.T, ts *httptest.Server) *http.Response {
	t.Helper()
	body := `{"project":"p","exception_type":"ValueError","message":"x",
		"traceback":"File \"/a.py\", line 1, in f\n  raise ValueError('x')"}`
	resp, err := http.Post(ts.URL+"/api/errors", "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

// TestIngestStatusCodes covers scenario S1: 201 on first ingest, 200 on a
// repeat of the same fingerprint, with the matching "status" field.
func TestIngestStatusCodes(t *testing.T) {
	ts, _ := newTestServerHTTP(t)

	resp := ingestSample(t, ts)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first ingest status = %d, want 201", resp.StatusCode)
	}
	var created map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created["status"] != "created" {
		t.Fatalf("status = %v, want created", created["status"])
	}

	resp2 := ingestSample(t, ts)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("second ingest status = %d, want 200", resp2.StatusCode)
	}
	var incremented map[string]interface{}
	if err := json.NewDecoder(resp2.Body).Decode(&incremented); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if incremented["status"] != "incremented" {
		t.Fatalf("status = %v, want incremented", incremented["status"])
	}
	if incremented["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", incremented["count"])
	}
}

// TestResolveThenReopen covers scenario S2: resolve responds 200 with a
// JSON body, and re-ingesting the same fingerprint reopens the group and
// bumps its count by one (from 1 to 2).
func TestResolveThenReopen(t *testing.T) {
	ts, _ := newTestServerHTTP(t)

	resp := ingestSample(t, ts)
	var created map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	id := int64(created["id"].(float64))

	resolveResp, err := http.Post(
		ts.URL+"/api/errors/"+strconv.FormatInt(id, 10)+"/resolve", "application/json", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer resolveResp.Body.Close()
	if resolveResp.StatusCode != http.StatusOK {
		t.Fatalf("resolve status = %d, want 200", resolveResp.StatusCode)
	}
	var resolved map[string]interface{}
	if err := json.NewDecoder(resolveResp.Body).Decode(&resolved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resolved["status"] != "resolved" {
		t.Fatalf("status = %v, want resolved", resolved["status"])
	}
	if int64(resolved["id"].(float64)) != id {
		t.Fatalf("id = %v, want %d", resolved["id"], id)
	}

	reopenResp := ingestSample(t, ts)
	defer reopenResp.Body.Close()
	if reopenResp.StatusCode != http.StatusOK {
		t.Fatalf("reopen status = %d, want 200", reopenResp.StatusCode)
	}
	var reopened map[string]interface{}
	if err := json.NewDecoder(reopenResp.Body).Decode(&reopened); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reopened["status"] != "reopened" {
		t.Fatalf("status = %v, want reopened", reopened["status"])
	}
	if reopened["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", reopened["count"])
	}
}

// TestListDefaultsToUnresolvedAcceptsOversizedLimit checks that GET
// /api/errors hides a resolved group when no resolved filter is given, and
// that an oversized limit (10000) is accepted; the 200-row clamp itself is
// not asserted here.
func TestListDefaultsToUnresolvedAcceptsOversizedLimit(t *testing.T) {
	ts, store := newTestServerHTTP(t)

	resp := ingestSample(t, ts)
	var created map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	id := int64(created["id"].(float64))

	if err := store.Resolve(id, time.Now()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	listResp, err := http.Get(ts.URL + "/api/errors?limit=10000")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer listResp.Body.Close()
	var groups []ErrorGroup
	if err := json.NewDecoder(listResp.Body).Decode(&groups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected the resolved group to be hidden by default, got %d rows", len(groups))
	}

	listResolvedResp, err := http.Get(ts.URL + "/api/errors?resolved=true")
	if err != nil {
		t.Fatalf("list resolved: %v", err)
	}
	defer listResolvedResp.Body.Close()
	var resolvedGroups []ErrorGroup
	if err := json.NewDecoder(listResolvedResp.Body).Decode(&resolvedGroups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resolvedGroups) != 1 {
		t.Fatalf("expected the resolved group with resolved=true, got %d rows", len(resolvedGroups))
	}
}
