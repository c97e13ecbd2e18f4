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

import "github.com/prometheus/client_golang/prometheus"

// Domain metrics, global-cardinality only (status and outcome, never
// fingerprint or project), registered once at init like the teacher's own
// telemetry/churn counters.
var (
	ingestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "error_tracker",
		Name:      "ingest_total",
		Help:      "Total error ingests by outcome (created, reopened, incremented).",
	}, []string{"status"})
	alertDispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "error_tracker",
		Name:      "alert_dispatch_total",
		Help:      "Total alert dispatch attempts by outcome (ok, error).",
	}, []string{"outcome"})
	retentionSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "error_tracker",
		Name:      "retention_swept_total",
		Help:      "Total error groups deleted by the retention sweep.",
	})
)

func init() {
	prometheus.MustRegister(ingestTotal, alertDispatchTotal, retentionSweptTotal)
}
