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

package metricscollector

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mattmezza/monlight/internal/platform/apierr"
)

// Server is the HTTP surface for the metrics collector.
type Server struct {
	store *Store
}

func NewServer(store *Store) *Server { return &Server{store: store} }

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleIngest(w, r)
	case http.MethodGet:
		s.handleQuery(w, r)
	default:
		apierr.MethodNotAllowed(w, "method not allowed")
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.BadRequest(w, "invalid JSON body")
		return
	}

	count, err := s.store.Ingest(req, time.Now())
	if err != nil {
		if ve, ok := err.(ValidationError); ok {
			apierr.BadRequest(w, ve.Detail)
			return
		}
		apierr.Internal(w)
		return
	}

	apierr.JSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "accepted",
		"count":  count,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		apierr.BadRequest(w, "name is required")
		return
	}

	period := parsePeriod(q.Get("period"), 24*time.Hour)
	filter := SeriesFilter{
		Name:       name,
		Period:     period,
		Resolution: q.Get("resolution"),
		Labels:     ParseLabelFilter(q.Get("labels")),
	}

	series, err := s.store.Series(filter, time.Now())
	if err != nil {
		apierr.Internal(w)
		return
	}
	apierr.JSON(w, http.StatusOK, series)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierr.MethodNotAllowed(w, "method not allowed")
		return
	}
	period := parsePeriod(r.URL.Query().Get("period"), 24*time.Hour)
	dash, err := s.store.Dashboard(period, time.Now())
	if err != nil {
		apierr.Internal(w)
		return
	}
	apierr.JSON(w, http.StatusOK, dash)
}

// parsePeriod parses Go duration strings (e.g. "1h", "30m"), falling back
// to def when empty or unparseable.
func parsePeriod(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
