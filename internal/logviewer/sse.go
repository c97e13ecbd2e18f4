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

package logviewer

import (
	"sync"
	"sync/atomic"
)

const (
	maxTailClients = 5
	tailBufferSize = 64
)

// tailClient is one connected SSE subscriber. Its outbound channel is
// bounded and never blocked on: a full channel means we drop the event for
// that client rather than stall ingestion.
type tailClient struct {
	id     int64
	events chan Entry
	filter QueryFilter
}

// TailHub fans out newly committed log entries to connected SSE clients.
type TailHub struct {
	mu       sync.Mutex
	clients  map[int64]*tailClient
	nextID   int64
	capacity int
	bufSize  int
}

// NewTailHub creates a fan-out hub whose per-client outbound channels hold
// bufferSize entries; zero or negative falls back to the default.
func NewTailHub(bufferSize int) *TailHub {
	if bufferSize <= 0 {
		bufferSize = tailBufferSize
	}
	return &TailHub{clients: make(map[int64]*tailClient), capacity: maxTailClients, bufSize: bufferSize}
}

// ErrTailCapacity is returned by Subscribe when the client limit is reached.
type tailCapacityError struct{}

func (tailCapacityError) Error() string { return "tail capacity exceeded" }

var ErrTailCapacity error = tailCapacityError{}

// Subscribe registers a new client and returns it, or ErrTailCapacity if
// the concurrent client limit (5) is already reached.
func (h *TailHub) Subscribe(filter QueryFilter) (*tailClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= h.capacity {
		return nil, ErrTailCapacity
	}
	id := atomic.AddInt64(&h.nextID, 1)
	c := &tailClient{id: id, events: make(chan Entry, h.bufSize), filter: filter}
	h.clients[id] = c
	tailClientsActive.Set(float64(len(h.clients)))
	return c, nil
}

// Unsubscribe removes a client, e.g. on disconnect or timeout.
func (h *TailHub) Unsubscribe(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
	tailClientsActive.Set(float64(len(h.clients)))
}

// Publish offers entries to every matching client's channel. A full
// channel means the event is dropped for that client; Publish never
// blocks the caller (the ingest/poll path).
func (h *TailHub) Publish(entries []Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range entries {
		for _, c := range h.clients {
			if !matchesFilter(e, c.filter) {
				continue
			}
			select {
			case c.events <- e:
			default:
			}
		}
	}
}

func matchesFilter(e Entry, f QueryFilter) bool {
	if f.Container != "" && e.Container != f.Container {
		return false
	}
	if f.Level != "" && e.Level != f.Level {
		return false
	}
	return true
}
