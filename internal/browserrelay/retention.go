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

import (
	"context"
	"log"
	"time"
)

// Retention periodically deletes source maps older than MaxAge. DSN keys
// are never auto-deleted, only soft-deactivated via DeactivateDSNKey.
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
				log.Printf("browser-relay: retention sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("browser-relay: retention sweep removed %d source maps", n)
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
	cutoff := now.Add(-r.maxAge).UTC().Format("2006-01-02T15:04:05Z")
	res, err := r.store.db.ExecContext(
		context.Background(),
		`DELETE FROM source_maps WHERE uploaded_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
