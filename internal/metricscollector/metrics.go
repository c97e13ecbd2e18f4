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

import "github.com/prometheus/client_golang/prometheus"

var (
	pointsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metrics_collector",
		Name:      "points_ingested_total",
		Help:      "Total raw metric points ingested.",
	})
	rollupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "metrics_collector",
		Name:      "rollup_duration_seconds",
		Help:      "Wall time of one rollup pass, by resolution.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"resolution"})
)

func init() {
	prometheus.MustRegister(pointsIngestedTotal, rollupDuration)
}
