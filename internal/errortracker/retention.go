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

import (
	"context"
	"log"
	"time"
)

// Retention periodically deletes resolved error groups whose resolved_at
// is older than maxAge. The occurrence rows cascade on delete.
type Retention struct {
	store    *Store
	maxAge   time.Duration
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewRetention(store *Store, maxAge, interval time.Duration) *Retention {
	return &Retention{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks, sweeping once per interval, until Stop is called.
func (r *Retention) Run() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			n, err := r.sweep(time.Now())
			if err != nil {
				log.Printf("error-tracker: retention sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("error-tracker: retention sweep removed %d resolved error groups", n)
			}
		}
	}
}

// Stop signals Run to exit and waits for it to finish.
func (r *Retention) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Retention) sweep(now time.Time) (int64, error) {
	cutoff := formatTime(now.Add(-r.maxAge))
	res, err := r.store.db.ExecContext(
		context.Background(),
		`DELETE FROM errors WHERE resolved = 1 AND resolved_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err == nil {
		retentionSweptTotal.Add(float64(n))
	}
	return n, err
}
