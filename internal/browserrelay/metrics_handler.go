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

import "net/url"

var browserMetricTypes = map[string]bool{"counter": true, "histogram": true, "gauge": true}

// buildMetricsPayload validates a BrowserMetricsPayload and enriches every
// point's labels with project, source="browser", and (if a URL was given)
// page = the URL's path with scheme/host/query/fragment stripped.
func buildMetricsPayload(project string, p BrowserMetricsPayload) (metricsCollectorPayload, error) {
	if len(p.Metrics) == 0 {
		return metricsCollectorPayload{}, ValidationError{"metrics must be a non-empty array"}
	}

	page := ""
	if p.URL != "" {
		if u, err := url.Parse(p.URL); err == nil {
			page = u.Path
		}
	}

	enriched := make([]BrowserMetricPoint, len(p.Metrics))
	for i, m := range p.Metrics {
		if m.Name == "" || len(m.Name) > 200 {
			return metricsCollectorPayload{}, ValidationError{"metrics[].name must be 1-200 chars"}
		}
		if !browserMetricTypes[m.Type] {
			return metricsCollectorPayload{}, ValidationError{"metrics[].type must be counter, histogram, or gauge"}
		}

		labels := map[string]interface{}{}
		for k, v := range m.Labels {
			labels[k] = v
		}
		labels["project"] = project
		labels["source"] = "browser"
		if page != "" {
			labels["page"] = page
		}

		enriched[i] = BrowserMetricPoint{
			Name:      m.Name,
			Type:      m.Type,
			Value:     m.Value,
			Labels:    labels,
			Timestamp: m.Timestamp,
		}
	}

	return metricsCollectorPayload{Metrics: enriched}, nil
}
