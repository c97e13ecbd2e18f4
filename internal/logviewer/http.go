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
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mattmezza/monlight/internal/platform/apierr"
)

const (
	heartbeatInterval = 15 * time.Second
	tailMaxDuration   = 30 * time.Minute
)

// Server is the HTTP surface for the log viewer.
type Server struct {
	store *Store
	hub   *TailHub
}

func NewServer(store *Store, hub *TailHub) *Server {
	return &Server{store: store, hub: hub}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/logs", s.handleQuery)
	mux.HandleFunc("/api/logs/tail", s.handleTail)
	mux.HandleFunc("/api/containers", s.handleContainers)
}

func filterFromQuery(q map[string][]string) QueryFilter {
	get := func(k string) string {
		if v, ok := q[k]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	f := QueryFilter{
		Container: get("container"),
		Level:     get("level"),
		Search:    get("search"),
		Since:     get("since"),
		Until:     get("until"),
	}
	if v := get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = n
		}
	}
	return f
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierr.MethodNotAllowed(w, "method not allowed")
		return
	}
	filter := filterFromQuery(r.URL.Query())
	entries, err := s.store.Query(filter)
	if err != nil {
		apierr.Internal(w)
		return
	}
	apierr.JSON(w, http.StatusOK, entries)
}

func (s *Server) handleContainers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierr.MethodNotAllowed(w, "method not allowed")
		return
	}
	containers, err := s.store.Containers()
	if err != nil {
		apierr.Internal(w)
		return
	}
	apierr.JSON(w, http.StatusOK, containers)
}

// handleTail streams new log entries as Server-Sent Events, bounded to 5
// concurrent clients and 30 minutes of connection lifetime.
func (s *Server) handleTail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierr.MethodNotAllowed(w, "method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		apierr.Internal(w)
		return
	}

	filter := filterFromQuery(r.URL.Query())
	client, err := s.hub.Subscribe(filter)
	if err != nil {
		apierr.Unavailable(w, "tail capacity exceeded")
		return
	}
	defer s.hub.Unsubscribe(client.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	deadline := time.NewTimer(tailMaxDuration)
	defer deadline.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-deadline.C:
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, "event: heartbeat\ndata: {}\n\n")
			flusher.Flush()
		case entry := <-client.events:
			payload, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: log\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
