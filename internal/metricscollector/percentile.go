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

import (
	"math"
	"sort"
)

// Percentile returns the q-th percentile (0..100) of sorted values, using
// the nearest-rank method at index ceil(n*q/100)-1. values must already be
// sorted ascending.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(n)*q/100)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// SortedCopy returns a sorted ascending copy of values, leaving the input
// untouched.
func SortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// Percentiles computes p50, p95, and p99 in one pass over a sorted copy of
// values.
func Percentiles(values []float64) (p50, p95, p99 float64) {
	sorted := SortedCopy(values)
	return Percentile(sorted, 50), Percentile(sorted, 95), Percentile(sorted, 99)
}
