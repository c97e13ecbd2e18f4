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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mattmezza/monlight/internal/browserrelay/mapcache"
	"github.com/mattmezza/monlight/internal/platform/apierr"
	"github.com/mattmezza/monlight/internal/platform/cors"
	"github.com/mattmezza/monlight/internal/platform/httpgate"
)

// Server is the HTTP surface for the Browser Relay: admin routes guarded
// by the configured admin API key, and /api/browser/* routes guarded by
// CORS plus per-request DSN auth.
type Server struct {
	store    *Store
	upstream *Upstream
	cache    mapcache.Cache
}

func NewServer(store *Store, upstream *Upstream, cache mapcache.Cache) *Server {
	if cache == nil {
		cache = mapcache.NewMemoryCache()
	}
	return &Server{store: store, upstream: upstream, cache: cache}
}

// RegisterRoutes mounts the admin routes (DSN keys, source maps) behind
// adminKey and the /api/browser/* routes behind allowlist's CORS handling
// plus DSN auth resolved against the store.
func (s *Server) RegisterRoutes(mux *http.ServeMux, adminKey string, allowlist *cors.Allowlist) {
	admin := http.NewServeMux()
	admin.HandleFunc("/api/dsn-keys", s.handleDSNKeysCollection)
	admin.HandleFunc("/api/dsn-keys/", s.handleDSNKeyItem)
	admin.HandleFunc("/api/source-maps", s.handleSourceMapsCollection)
	admin.HandleFunc("/api/source-maps/", s.handleSourceMapItem)

	var adminHandler http.Handler = admin
	if adminKey != "" {
		adminHandler = httpgate.APIKey(adminKey)(admin)
	}
	mux.Handle("/api/dsn-keys", adminHandler)
	mux.Handle("/api/dsn-keys/", adminHandler)
	mux.Handle("/api/source-maps", adminHandler)
	mux.Handle("/api/source-maps/", adminHandler)

	browser := http.NewServeMux()
	browser.HandleFunc("/api/browser/errors", s.handleBrowserErrors)
	browser.HandleFunc("/api/browser/metrics", s.handleBrowserMetrics)

	var browserHandler http.Handler = httpgate.DSNAuth(s.store.ResolveDSN)(browser)
	browserHandler = allowlist.Middleware(browserHandler)
	mux.Handle("/api/browser/", browserHandler)
}

func (s *Server) handleDSNKeysCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var body struct {
			Project string `json:"project"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			apierr.BadRequest(w, "invalid JSON body")
			return
		}
		if body.Project == "" || len(body.Project) > 100 {
			apierr.BadRequest(w, "project is required and must be at most 100 chars")
			return
		}
		key, err := s.store.CreateDSNKey(body.Project, time.Now())
		if err != nil {
			apierr.Internal(w)
			return
		}
		apierr.JSON(w, http.StatusCreated, key)
	case http.MethodGet:
		keys, err := s.store.ListDSNKeys()
		if err != nil {
			apierr.Internal(w)
			return
		}
		apierr.JSON(w, http.StatusOK, keys)
	default:
		apierr.MethodNotAllowed(w, "method not allowed")
	}
}

func (s *Server) handleDSNKeyItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		apierr.MethodNotAllowed(w, "method not allowed")
		return
	}
	id, err := parseTrailingID(r.URL.Path, "/api/dsn-keys/")
	if err != nil {
		apierr.NotFound(w, "dsn key not found")
		return
	}
	if err := s.store.DeactivateDSNKey(id); errors.Is(err, ErrNotFound) {
		apierr.NotFound(w, "dsn key not found")
		return
	} else if err != nil {
		apierr.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSourceMapsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var sm SourceMap
		if err := json.NewDecoder(r.Body).Decode(&sm); err != nil {
			apierr.BadRequest(w, "invalid JSON body")
			return
		}
		if sm.Project == "" || sm.Release == "" || sm.FileURL == "" {
			apierr.BadRequest(w, "project, release, and file_url are required")
			return
		}
		id, err := s.store.UpsertSourceMap(sm, time.Now())
		var ve ValidationError
		if errors.As(err, &ve) {
			apierr.BadRequest(w, ve.Detail)
			return
		}
		if err != nil {
			apierr.Internal(w)
			return
		}
		apierr.JSON(w, http.StatusCreated, map[string]interface{}{"id": id})
	case http.MethodGet:
		q := r.URL.Query()
		maps, err := s.store.ListSourceMaps(SourceMapFilter{Project: q.Get("project"), Release: q.Get("release")})
		if err != nil {
			apierr.Internal(w)
			return
		}
		apierr.JSON(w, http.StatusOK, maps)
	default:
		apierr.MethodNotAllowed(w, "method not allowed")
	}
}

func (s *Server) handleSourceMapItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		apierr.MethodNotAllowed(w, "method not allowed")
		return
	}
	id, err := parseTrailingID(r.URL.Path, "/api/source-maps/")
	if err != nil {
		apierr.NotFound(w, "source map not found")
		return
	}
	if err := s.store.DeleteSourceMap(id); errors.Is(err, ErrNotFound) {
		apierr.NotFound(w, "source map not found")
		return
	} else if err != nil {
		apierr.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBrowserErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apierr.MethodNotAllowed(w, "method not allowed")
		return
	}
	project, _ := httpgate.ProjectFromContext(r.Context())

	var p BrowserErrorPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		apierr.BadRequest(w, "invalid JSON body")
		return
	}

	payload, err := buildErrorPayload(s.store, s.cache, project, p)
	var ve ValidationError
	if errors.As(err, &ve) {
		apierr.BadRequest(w, ve.Detail)
		return
	}
	if err != nil {
		apierr.Internal(w)
		return
	}

	result, err := s.upstream.ForwardError(r.Context(), payload)
	if err != nil {
		apierr.BadGateway(w, "Upstream error")
		return
	}
	mirrorUpstream(w, result)
}

func (s *Server) handleBrowserMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apierr.MethodNotAllowed(w, "method not allowed")
		return
	}
	project, _ := httpgate.ProjectFromContext(r.Context())

	var p BrowserMetricsPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		apierr.BadRequest(w, "invalid JSON body")
		return
	}

	payload, err := buildMetricsPayload(project, p)
	var ve ValidationError
	if errors.As(err, &ve) {
		apierr.BadRequest(w, ve.Detail)
		return
	}
	if err != nil {
		apierr.Internal(w)
		return
	}

	if _, err := s.upstream.ForwardMetrics(r.Context(), payload); err != nil {
		apierr.BadGateway(w, "Upstream error")
		return
	}
	apierr.JSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "accepted",
		"count":  len(payload.Metrics),
	})
}

// mirrorUpstream copies the Error Tracker's response status and JSON body
// back to the browser caller verbatim.
func mirrorUpstream(w http.ResponseWriter, result UpstreamResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	w.Write(result.Body)
}

func parseTrailingID(path, prefix string) (int64, error) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	return strconv.ParseInt(rest, 10, 64)
}
