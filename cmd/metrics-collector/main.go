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

// Package main is the entry point for the metrics-collector service: it
// accepts batched metric points, rolls them up into minute and hourly
// aggregates with percentile estimation, and serves timeseries and
// dashboard queries.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/mattmezza/monlight/internal/metricscollector"
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
	dbPath := config.String("DATABASE_PATH", "./metrics-collector.db")
	httpAddr := ":" + config.String("HTTP_PORT", "8080")
	apiKey := config.String("API_KEY", "")
	rateLimit := config.Int("RATE_LIMIT", 100)
	rateWindow := config.Duration("RATE_LIMIT_WINDOW", 60*time.Second)
	bodyLimit := config.Int64("MAX_BODY_SIZE", 64<<10)
	aggregationInterval := config.Duration("AGGREGATION_INTERVAL", 60*time.Second)
	hourlyInterval := config.Duration("HOURLY_AGGREGATION_INTERVAL", time.Hour)
	retentionRaw := config.Duration("RETENTION_RAW", 7*24*time.Hour)
	retentionMinute := config.Duration("RETENTION_MINUTE", 30*24*time.Hour)
	retentionHourly := config.Duration("RETENTION_HOURLY", 365*24*time.Hour)
	retentionInterval := config.Duration("RETENTION_INTERVAL", 24*time.Hour)

	// 2. Open storage and apply migrations.
	db, err := dbstore.Open(dbPath, metricscollector.Migrations)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	store := metricscollector.NewStore(db)

	// 3. Start the rollup and retention workers. They share the request
	// path's *sql.DB rather than opening a connection of their own; WAL +
	// busy_timeout absorbs the writer contention between them.
	minuteRoller := metricscollector.NewMinuteRoller(store, aggregationInterval)
	hourRoller := metricscollector.NewHourRoller(store, hourlyInterval)
	retention := metricscollector.NewRetention(store, retentionRaw, retentionMinute, retentionHourly, retentionInterval)
	minuteRoller.Start()
	hourRoller.Start()
	retention.Start()

	// 4. Build the HTTP surface. /health stays off the gated mux.
	telem := telemetry.NewHTTP("metrics_collector")
	apiMux := http.NewServeMux()

	apiServer := metricscollector.NewServer(store)
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

	// 5. Serve until SIGINT/SIGTERM, draining workers first.
	shutdown.Run(httpServer, minuteRoller, hourRoller, retention)
}
