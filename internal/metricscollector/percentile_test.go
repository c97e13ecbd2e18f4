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

import "testing"

func TestPercentileNearestRank(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	cases := []struct {
		q    float64
		want float64
	}{
		{50, 50},
		{95, 100},
		{99, 100},
		{0, 10},
		{100, 100},
	}
	for _, c := range cases {
		got := Percentile(sorted, c.q)
		if got != c.want {
			t.Errorf("Percentile(q=%v) = %v, want %v", c.q, got, c.want)
		}
	}
}

func TestPercentileEmpty(t *testing.T) {
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("Percentile(nil) = %v, want 0", got)
	}
}

func TestSortedCopyDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	sorted := SortedCopy(values)
	if values[0] != 3 {
		t.Fatalf("SortedCopy mutated input: %v", values)
	}
	if sorted[0] != 1 || sorted[1] != 2 || sorted[2] != 3 {
		t.Fatalf("SortedCopy wrong order: %v", sorted)
	}
}

func TestPercentilesOrder(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	p50, p95, p99 := Percentiles(values)
	if !(p50 <= p95 && p95 <= p99) {
		t.Errorf("percentiles out of order: p50=%v p95=%v p99=%v", p50, p95, p99)
	}
	if p50 != 50 {
		t.Errorf("p50 = %v, want 50", p50)
	}
}
