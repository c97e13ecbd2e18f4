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

// Package cors implements the origin allowlist behavior required on the
// Browser Relay's /api/browser/* routes. It is a small, hand-written
// middleware rather than an imported router's CORS plugin: no router
// framework is in play elsewhere in this codebase, and the behavior
// (echo-if-allowed, silent no-op otherwise) is a handful of lines.
package cors

import "net/http"

// Allowlist parses an origin list once at startup and answers whether a
// given Origin header value is permitted.
type Allowlist struct {
	origins map[string]struct{}
}

// NewAllowlist builds an Allowlist from the configured origins. An empty
// list means CORS headers are never emitted.
func NewAllowlist(origins []string) *Allowlist {
	m := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		m[o] = struct{}{}
	}
	return &Allowlist{origins: m}
}

func (a *Allowlist) allowed(origin string) bool {
	if origin == "" || len(a.origins) == 0 {
		return false
	}
	_, ok := a.origins[origin]
	return ok
}

// Middleware applies CORS headers when the caller's Origin is allowed, and
// answers preflight OPTIONS requests with 204. A disallowed origin gets no
// CORS headers at all, but the request still proceeds to the handler — the
// browser, not the server, enforces the block.
func (a *Allowlist) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if a.allowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			if a.allowed(origin) {
				w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "X-Monlight-Key, Content-Type")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
