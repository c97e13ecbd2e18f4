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

// Package httpgate provides the stackable pre-handler checks applied to
// every route except /health: API key auth, DSN key auth, body size caps,
// and a sliding-window rate limiter. Composition is plain net/http
// middleware, no router framework.
package httpgate

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/mattmezza/monlight/internal/platform/apierr"
)

// globalRateLimitKey is used for services that rate-limit on a single
// shared bucket (one API key per service) rather than true per-caller keying.
const globalRateLimitKey = "global"

// APIKey returns middleware that rejects requests whose X-API-Key header
// does not match key, in constant time. Header lookup via r.Header.Get is
// already ASCII case-insensitive: net/http canonicalizes header names
// while parsing the request.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if !constantTimeEqual(got, key) {
				apierr.Unauthorized(w, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// projectContextKey is the context.Context key DSNAuth stashes the
// resolved project string under.
type projectContextKey struct{}

// DSNResolver looks up the project owning an active DSN public key.
// browserrelay.Store.ResolveDSN implements this shape.
type DSNResolver func(publicKey string) (project string, ok bool, err error)

// DSNAuth returns middleware rejecting requests whose X-Monlight-Key
// header does not resolve to an active DSN key via resolve, and on a hit
// attaches the resolved project to the request context for downstream
// handlers to read with ProjectFromContext.
func DSNAuth(resolve DSNResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Monlight-Key")
			project, ok, err := resolve(key)
			if err != nil {
				apierr.Internal(w)
				return
			}
			if key == "" || !ok {
				apierr.Unauthorized(w, "Invalid DSN key")
				return
			}
			ctx := context.WithValue(r.Context(), projectContextKey{}, project)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProjectFromContext returns the project attached by DSNAuth, if any.
func ProjectFromContext(ctx context.Context) (string, bool) {
	project, ok := ctx.Value(projectContextKey{}).(string)
	return project, ok
}

// BodyLimit returns middleware rejecting requests whose declared
// Content-Length exceeds max bytes with 413, and additionally wraps the
// body reader so an unset/incorrect Content-Length can't be used to smuggle
// a larger payload past the check.
func BodyLimit(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > max {
				apierr.TooLarge(w, "Payload too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit returns middleware admitting requests through the given
// sliding window, rejecting with 429 and a Retry-After header plus a JSON
// retry_after field on overflow.
func RateLimit(limiter *SlidingWindow) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := limiter.Allow(globalRateLimitKey, time.Now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				apierr.RateLimited(w, retryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares in order, so Chain(h, A, B) handles a request
// as A(B(h)).
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
