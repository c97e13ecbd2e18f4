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

import "testing"

func TestTailHubRejectsBeyondCapacity(t *testing.T) {
	hub := NewTailHub(0)
	for i := 0; i < maxTailClients; i++ {
		if _, err := hub.Subscribe(QueryFilter{}); err != nil {
			t.Fatalf("expected client %d to be admitted, got %v", i, err)
		}
	}
	if _, err := hub.Subscribe(QueryFilter{}); err != ErrTailCapacity {
		t.Fatalf("expected ErrTailCapacity on the 6th client, got %v", err)
	}
}

func TestTailHubPublishFiltersByContainer(t *testing.T) {
	hub := NewTailHub(0)
	client, err := hub.Subscribe(QueryFilter{Container: "web"})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	hub.Publish([]Entry{{Container: "worker", Message: "nope"}, {Container: "web", Message: "yes"}})

	select {
	case e := <-client.events:
		if e.Container != "web" {
			t.Fatalf("expected only the matching container's entry, got %+v", e)
		}
	default:
		t.Fatalf("expected one matching entry to be delivered")
	}

	select {
	case e := <-client.events:
		t.Fatalf("expected no second entry, got %+v", e)
	default:
	}
}

func TestTailHubPublishNeverBlocksOnFullBuffer(t *testing.T) {
	hub := NewTailHub(0)
	client, err := hub.Subscribe(QueryFilter{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	entries := make([]Entry, tailBufferSize+10)
	for i := range entries {
		entries[i] = Entry{Container: "c"}
	}
	hub.Publish(entries) // must return without blocking even though the channel is smaller

	if len(client.events) != tailBufferSize {
		t.Fatalf("expected channel to be filled to capacity %d, got %d", tailBufferSize, len(client.events))
	}
}
