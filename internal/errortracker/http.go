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
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mattmezza/monlight/internal/platform/apierr"
)

// Server is the HTTP surface for the error tracker.
type Server struct {
	store      *Store
	dispatcher Dispatcher
}

func NewServer(store *Store, dispatcher Dispatcher) *Server {
	return &Server{store: store, dispatcher: dispatcher}
}

// RegisterRoutes mounts every error-tracker route on mux. Callers are
// expected to wrap mux with the shared auth/body/rate-limit gates before
// serving.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/errors", s.handleErrorsCollection)
	mux.HandleFunc("/api/errors/", s.handleErrorItem)
	mux.HandleFunc("/api/projects", s.handleProjects)
}

func (s *Server) handleErrorsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleIngest(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		apierr.MethodNotAllowed(w, "method not allowed")
	}
}

// handleErrorItem dispatches /api/errors/{id} and /api/errors/{id}/resolve.
func (s *Server) handleErrorItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/errors/")
	rest = strings.Trim(rest, "/")
	parts := strings.Split(rest, "/")

	idStr := parts[0]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || idStr == "" {
		apierr.NotFound(w, "error group not found")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.handleGet(w, r, id)
	case len(parts) == 2 && parts[1] == "resolve" && r.Method == http.MethodPost:
		s.handleResolve(w, r, id)
	default:
		apierr.NotFound(w, "error group not found")
	}
}

// handleIngest is step 1 of request handling: decode, step 2: ingest
// transaction, step 3: fire alert if new/reopened, step 4: respond.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var payload IngestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apierr.BadRequest(w, "invalid JSON body")
		return
	}
	if payload.Project == "" || payload.ExceptionType == "" {
		apierr.BadRequest(w, "project and exception_type are required")
		return
	}

	result, alertable, err := s.store.Ingest(payload, time.Now())
	if err != nil {
		apierr.Internal(w)
		return
	}

	if alertable && s.dispatcher != nil {
		status := "created"
		if result.Status == StatusReopened {
			status = "reopened"
		}
		FireAndForget(s.dispatcher, AlertEvent{
			ID:            result.ID,
			Fingerprint:   result.Fingerprint,
			Project:       payload.Project,
			Environment:   payload.Environment,
			ExceptionType: payload.ExceptionType,
			Message:       payload.Message,
			Traceback:     payload.Traceback,
			RequestURL:    payload.RequestURL,
			RequestMethod: payload.RequestMethod,
			FirstSeen:     result.FirstSeen,
			Status:        status,
		})
	}

	statusCode := http.StatusOK
	if result.Status == StatusCreated {
		statusCode = http.StatusCreated
	}
	apierr.JSON(w, statusCode, map[string]interface{}{
		"id":          result.ID,
		"fingerprint": result.Fingerprint,
		"status":      result.Status,
		"count":       result.Count,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Project:     q.Get("project"),
		Environment: q.Get("environment"),
	}
	resolved := false
	if v := q.Get("resolved"); v != "" {
		resolved = v == "true" || v == "1"
	}
	filter.Resolved = &resolved
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	groups, err := s.store.List(filter)
	if err != nil {
		apierr.Internal(w)
		return
	}
	apierr.JSON(w, http.StatusOK, groups)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, id int64) {
	group, occurrences, err := s.store.Get(id)
	if err == ErrNotFound {
		apierr.NotFound(w, "error group not found")
		return
	}
	if err != nil {
		apierr.Internal(w)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]interface{}{
		"error":       group,
		"occurrences": occurrences,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.store.Resolve(id, time.Now()); err == ErrNotFound {
		apierr.NotFound(w, "error group not found")
		return
	} else if err != nil {
		apierr.Internal(w)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]interface{}{
		"status": "resolved",
		"id":     id,
	})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apierr.MethodNotAllowed(w, "method not allowed")
		return
	}
	projects, err := s.store.Projects()
	if err != nil {
		apierr.Internal(w)
		return
	}
	apierr.JSON(w, http.StatusOK, projects)
}
