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

import "github.com/prometheus/client_golang/prometheus"

var upstreamForwardDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "browser_relay",
	Name:      "upstream_forward_duration_seconds",
	Help:      "Latency of forwarding a browser payload to its upstream service, by target and outcome.",
	Buckets:   prometheus.DefBuckets,
}, []string{"target", "outcome"})

func init() {
	prometheus.MustRegister(upstreamForwardDuration)
}
