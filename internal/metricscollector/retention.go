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
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Retention sweeps metrics_raw and both aggregate resolutions daily,
// each against its own configured age.
type Retention struct {
	store        *Store
	rawMaxAge    time.Duration
	minuteMaxAge time.Duration
	hourlyMaxAge time.Duration
	interval     time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  uint32
}

func NewRetention(store *Store, rawMaxAge, minuteMaxAge, hourlyMaxAge, interval time.Duration) *Retention {
	return &Retention{
		store:        store,
		rawMaxAge:    rawMaxAge,
		minuteMaxAge: minuteMaxAge,
		hourlyMaxAge: hourlyMaxAge,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

func (r *Retention) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()
}

func (r *Retention) Stop() {
	if !atomic.CompareAndSwapUint32(&r.stopped, 0, 1) {
		return
	}
	close(r.stopChan)
	r.wg.Wait()
}

func (r *Retention) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			if err := r.sweep(time.Now()); err != nil {
				log.Printf("metrics-collector: retention sweep failed: %v", err)
			}
		}
	}
}

func (r *Retention) sweep(now time.Time) error {
	if _, err := r.store.db.Exec(`DELETE FROM metrics_raw WHERE timestamp < ?`, cutoff(now, r.rawMaxAge)); err != nil {
		return err
	}
	if _, err := r.store.db.Exec(
		`DELETE FROM metrics_aggregated WHERE resolution = ? AND bucket < ?`,
		ResolutionMinute, cutoff(now, r.minuteMaxAge),
	); err != nil {
		return err
	}
	if _, err := r.store.db.Exec(
		`DELETE FROM metrics_aggregated WHERE resolution = ? AND bucket < ?`,
		ResolutionHour, cutoff(now, r.hourlyMaxAge),
	); err != nil {
		return err
	}
	return nil
}

func cutoff(now time.Time, maxAge time.Duration) string {
	return now.Add(-maxAge).UTC().Format("2006-01-02T15:04:05Z")
}
