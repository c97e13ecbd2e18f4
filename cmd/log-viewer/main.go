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

// Package main is the entry point for the log-viewer service: it tails
// Docker JSON log files for a configured set of containers, reassembles
// multiline entries, indexes them for full-text search, and serves queries
// plus a live SSE tail.
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mattmezza/monlight/internal/logviewer"
	"github.com/mattmezza/monlight/internal/platform/config"
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
	dbPath := config.String("DATABASE_PATH", "./log-viewer.db")
	httpAddr := ":" + config.String("HTTP_PORT", "8080")
	apiKey := config.String("API_KEY", "")
	logSources := config.String("LOG_SOURCES", "/var/lib/docker/containers")
	containers := config.StringList("CONTAINERS")
	maxEntries := config.Int("MAX_ENTRIES", 1_000_000)
	pollInterval := config.Duration("POLL_INTERVAL", 2*time.Second)
	tailBuffer := config.Int("TAIL_BUFFER", 0)
	rateLimit := config.Int("RATE_LIMIT", 100)
	rateWindow := config.Duration("RATE_LIMIT_WINDOW", 60*time.Second)
	bodyLimit := config.Int64("MAX_BODY_SIZE", 64<<10)

	// 2. Open storage and apply migrations.
	db, err := dbstore.Open(dbPath, logviewer.Migrations)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	store := logviewer.NewStore(db)
	cursors := logviewer.NewCursorStore(db)
	hub := logviewer.NewTailHub(tailBuffer)

	// 3. Discover watched log files and start the poller.
	files, err := logviewer.Discover(logSources, containers)
	if err != nil {
		log.Printf("log-viewer: discovery failed: %v", err)
	}
	poller := logviewer.NewPoller(logSources, files, cursors, store, pollInterval, maxEntries, hub.Publish)
	poller.Start()

	// 4. Build the HTTP surface. /health stays off the gated mux so it
	// never requires the API key or counts against the rate limiter.
	telem := telemetry.NewHTTP("log_viewer")
	apiMux := http.NewServeMux()

	apiServer := logviewer.NewServer(store, hub)
	apiServer.RegisterRoutes(apiMux)
	telemetry.Mount(apiMux)

	limiter := httpgate.NewSlidingWindow(rateLimit, rateWindow)
	var gated http.Handler = apiMux
	gated = httpgate.Chain(gated,
		func(next http.Handler) http.Handler {
			return telem.Instrument("default", next)
		},
		httpgate.RateLimit(limiter),
		httpgate.BodyLimit(bodyLimit),
	)
	if apiKey != "" {
		gated = httpgate.Chain(gated, httpgate.APIKey(apiKey))
	}

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
		WriteTimeout: 0, // SSE tail connections are long-lived.
		IdleTimeout:  120 * time.Second,
	}

	// 5. Serve until SIGINT/SIGTERM, draining the poller first.
	shutdown.Run(httpServer, poller)
}
