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

// Package main is the entry point for the error-tracker service: it
// accepts POST /api/errors ingest traffic, deduplicates by fingerprint,
// dispatches alerts for new or reopened groups, and sweeps old resolved
// groups on a daily interval.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/mattmezza/monlight/internal/errortracker"
	"github.com/mattmezza/monlight/internal/platform/config"
	"github.com/mattmezza/monlight/internal/platform/dbstore"
	"github.com/mattmezza/monlight/internal/platform/healthcheck"
	"github.com/mattmezza/monlight/internal/platform/httpgate"
	"github.com/mattmezza/monlight/internal/platform/shutdown"
	"github.com/mattmezza/monlight/internal/platform/telemetry"
)

func main() {
	// --healthcheck is a short-lived CLI mode, not a server start: dial the
	// configured port and exit 0/1 based on the /health response.
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
	dbPath := config.String("DATABASE_PATH", "./error-tracker.db")
	httpAddr := ":" + config.String("HTTP_PORT", "8080")
	apiKey := config.String("API_KEY", "")
	postmarkToken := config.String("POSTMARK_API_TOKEN", "")
	postmarkFrom := config.String("POSTMARK_FROM_EMAIL", "")
	alertEmails := config.StringList("ALERT_EMAILS")
	baseURL := config.String("BASE_URL", "")
	rateLimit := config.Int("RATE_LIMIT", 100)
	rateWindow := config.Duration("RATE_LIMIT_WINDOW", 60*time.Second)
	bodyLimit := config.Int64("MAX_BODY_SIZE", 64<<10)
	retentionDays := config.Int("RETENTION_DAYS", 90)
	retentionInterval := config.Duration("RETENTION_INTERVAL", 24*time.Hour)

	// 2. Open storage and apply migrations.
	db, err := dbstore.Open(dbPath, errortracker.Migrations)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	store := errortracker.NewStore(db)

	// 3. Wire the alert dispatcher, if Postmark credentials are configured.
	var dispatcher errortracker.Dispatcher
	if postmarkToken != "" && len(alertEmails) > 0 {
		dispatcher = errortracker.NewPostmarkDispatcher(postmarkToken, postmarkFrom, alertEmails, baseURL)
	}

	// 4. Start the retention sweep worker.
	retention := errortracker.NewRetention(store, time.Duration(retentionDays)*24*time.Hour, retentionInterval)
	go retention.Run()

	// 5. Build the HTTP surface: telemetry, then gates, then routes. /health
	// is mounted on the root mux directly so it never passes through the
	// gates (§4.2: every route except /health).
	telem := telemetry.NewHTTP("error_tracker")
	apiMux := http.NewServeMux()

	apiServer := errortracker.NewServer(store, dispatcher)
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
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 6. Serve until SIGINT/SIGTERM, draining the retention worker first.
	shutdown.Run(httpServer, retentionWorker{retention})
}

type retentionWorker struct {
	r *errortracker.Retention
}

func (w retentionWorker) Stop() { w.r.Stop() }
