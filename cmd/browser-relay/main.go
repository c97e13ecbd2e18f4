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

// Package main is the entry point for the browser-relay service: it
// manages DSN credentials and source maps, accepts browser-origin error
// and metrics traffic under CORS, rewrites minified stacks against
// uploaded source maps, and forwards enriched payloads to the Error
// Tracker and the Metrics Collector.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/mattmezza/monlight/internal/browserrelay"
	"github.com/mattmezza/monlight/internal/browserrelay/mapcache"
	"github.com/mattmezza/monlight/internal/platform/config"
	"github.com/mattmezza/monlight/internal/platform/cors"
	"github.com/mattmezza/monlight/internal/platform/dbstore"
	"github.com/mattmezza/monlight/internal/platform/healthcheck"
	"github.com/mattmezza/monlight/internal/platform/httpgate"
	"github.com/mattmezza/monlight/internal/platform/shutdown"
	"github.com/mattmezza/monlight/internal/platform/telemetry"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--healthcheck" {
			port := config.String("HTTP_PORT", "8080")
			if err := healthcheck.Check(port); err != nil {
				os.Exit(1)
			}
			os.Exit(0)
		}
	}

	// 1. Load configuration from the environment.
	dbPath := config.String("DATABASE_PATH", "./browser-relay.db")
	httpAddr := ":" + config.String("HTTP_PORT", "8080")
	adminKey := config.String("ADMIN_API_KEY", "")
	errorTrackerURL := config.String("ERROR_TRACKER_URL", "http://localhost:8081")
	errorTrackerAPIKey := config.String("ERROR_TRACKER_API_KEY", "")
	metricsCollectorURL := config.String("METRICS_COLLECTOR_URL", "http://localhost:8082")
	metricsCollectorAPIKey := config.String("METRICS_COLLECTOR_API_KEY", "")
	corsOrigins := config.StringList("CORS_ORIGINS")
	rateLimit := config.Int("RATE_LIMIT", 100)
	rateWindow := config.Duration("RATE_LIMIT_WINDOW", 60*time.Second)
	bodyLimit := config.Int64("MAX_BODY_SIZE", 64<<10)
	sourceMapBodyLimit := config.Int64("MAX_SOURCE_MAP_BODY_BYTES", browserrelay.MaxSourceMapBytes)
	retentionDays := config.Int("RETENTION_DAYS", 30)
	retentionInterval := config.Duration("RETENTION_INTERVAL", 24*time.Hour)
	cacheAdapter := config.String("MAP_CACHE_ADAPTER", "memory")
	cacheAddr := config.String("MAP_CACHE_REDIS_ADDR", "")

	// 2. Open storage and apply migrations.
	db, err := dbstore.Open(dbPath, browserrelay.Migrations)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	store := browserrelay.NewStore(db)
	cache := mapcache.Build(cacheAdapter, cacheAddr)
	upstream := browserrelay.NewUpstream(errorTrackerURL, errorTrackerAPIKey, metricsCollectorURL, metricsCollectorAPIKey)

	// 3. Start the source-map retention sweep. DSN keys are never
	// auto-deleted.
	retention := browserrelay.NewRetention(store, time.Duration(retentionDays)*24*time.Hour, retentionInterval)
	go retention.Run()

	// 4. Build the HTTP surface. /api/browser/* gets CORS + DSN auth
	// instead of the admin API key (§4.2, testable property #9); the
	// admin routes (dsn-keys, source-maps) get the admin key. Both sit
	// behind the shared body-size cap and rate limiter, and /health stays
	// ungated.
	telem := telemetry.NewHTTP("browser_relay")
	apiMux := http.NewServeMux()

	allowlist := cors.NewAllowlist(corsOrigins)
	apiServer := browserrelay.NewServer(store, upstream, cache)
	apiServer.RegisterRoutes(apiMux, adminKey, allowlist)
	telemetry.Mount(apiMux)

	limiter := httpgate.NewSlidingWindow(rateLimit, rateWindow)
	var gated http.Handler = apiMux
	gated = httpgate.Chain(gated,
		func(next http.Handler) http.Handler {
			return telem.Instrument("default", next)
		},
		httpgate.RateLimit(limiter),
		sourceMapAwareBodyLimit(bodyLimit, sourceMapBodyLimit),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("200 OK"))
	})
	mux.Handle("/", gated)

	httpServer := &http.Server{
		Addr:         httpAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 5. Serve until SIGINT/SIGTERM, draining the retention worker first.
	shutdown.Run(httpServer, retention)
}

// sourceMapAwareBodyLimit applies the default 64 KiB cap everywhere except
// POST /api/source-maps, which gets the larger 5 MiB cap for map_content
// uploads (§4.2).
func sourceMapAwareBodyLimit(defaultMax, sourceMapMax int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		defaultGate := httpgate.BodyLimit(defaultMax)(next)
		sourceMapGate := httpgate.BodyLimit(sourceMapMax)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/source-maps" && r.Method == http.MethodPost {
				sourceMapGate.ServeHTTP(w, r)
				return
			}
			defaultGate.ServeHTTP(w, r)
		})
	}
}
